package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BAZ1995/Theblog.io/internal/authz"
	"github.com/BAZ1995/Theblog.io/internal/repo"
	resp "github.com/BAZ1995/Theblog.io/internal/transport/http/response"
)

type PostHandler struct {
	repo *repo.Content
}

func NewPostHandler(r *repo.Content) *PostHandler { return &PostHandler{repo: r} }

// List serves GET /posts?category=; published posts only.
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.repo.ListPosts(c.Request.Context(), c.Query("category"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, posts)
}

// Get serves GET /posts/:slug. A draft is served only to an admin;
// to everyone else it does not exist.
func (h *PostHandler) Get(c *gin.Context) {
	p, err := h.repo.GetPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	if !authz.CanViewPost(identityFrom(c), p) {
		c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "post not found: "+c.Param("slug")))
		return
	}
	ok(c, p)
}

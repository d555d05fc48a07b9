package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BAZ1995/Theblog.io/internal/authz"
	"github.com/BAZ1995/Theblog.io/internal/domain"
	"github.com/BAZ1995/Theblog.io/internal/repo"
	"github.com/BAZ1995/Theblog.io/internal/session"
	resp "github.com/BAZ1995/Theblog.io/internal/transport/http/response"
)

// AdminPostHandler is the dashboard surface: authoring, publishing and
// deleting posts. On top of the transport-level token check it defers
// to the gate on the process session, so a still-resolving session
// asks the caller to retry instead of denying.
type AdminPostHandler struct {
	repo *repo.Content
	sess *session.Store
}

func NewAdminPostHandler(r *repo.Content, sess *session.Store) *AdminPostHandler {
	return &AdminPostHandler{repo: r, sess: sess}
}

// gate returns false after writing the response when access is not
// (yet) allowed.
func (h *AdminPostHandler) gate(c *gin.Context) bool {
	snap := h.sess.Current()
	switch authz.AdminAccess(snap.State, snap.Identity) {
	case authz.Allow:
		return true
	case authz.Undetermined:
		// suspend, don't deny: the role check is still in flight
		c.JSON(http.StatusOK, resp.Error(resp.CodeRetryLater, "session resolving, retry"))
		return false
	default:
		c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "admin access required"))
		return false
	}
}

// List serves GET /posts: the author's own posts, drafts included.
func (h *AdminPostHandler) List(c *gin.Context) {
	if !h.gate(c) {
		return
	}
	posts, err := h.repo.ListAdminPosts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, posts)
}

func (h *AdminPostHandler) Create(c *gin.Context) {
	if !h.gate(c) {
		return
	}
	var in repo.CreatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	p, err := h.repo.CreatePost(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *AdminPostHandler) Update(c *gin.Context) {
	if !h.gate(c) {
		return
	}
	var patch domain.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	p, err := h.repo.UpdatePost(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *AdminPostHandler) Delete(c *gin.Context) {
	if !h.gate(c) {
		return
	}
	if err := h.repo.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"id": c.Param("id")})
}

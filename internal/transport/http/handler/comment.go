package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BAZ1995/Theblog.io/internal/authz"
	"github.com/BAZ1995/Theblog.io/internal/repo"
	resp "github.com/BAZ1995/Theblog.io/internal/transport/http/response"
)

type CommentHandler struct {
	repo *repo.Content
}

func NewCommentHandler(r *repo.Content) *CommentHandler { return &CommentHandler{repo: r} }

// List serves GET /comments?post_id=; chronological order.
func (h *CommentHandler) List(c *gin.Context) {
	postID := c.Query("post_id")
	if postID == "" {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "post_id is required"))
		return
	}
	comments, err := h.repo.ListComments(c.Request.Context(), postID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, comments)
}

type createCommentIn struct {
	PostID  string `json:"postId" binding:"required"`
	Content string `json:"content"`
	// GuestName is display-only; it is never persisted as an identity.
	GuestName string `json:"guestName"`
}

// Create serves POST /comments. Signed-in users own their comment;
// guests post without an owner reference.
func (h *CommentHandler) Create(c *gin.Context) {
	var in createCommentIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}

	var userID *string
	if claims := claimsFrom(c); claims != nil {
		uid := claims.UID
		userID = &uid
	}

	comment, err := h.repo.CreateComment(c.Request.Context(), in.PostID, in.Content, userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, comment)
}

// Delete serves DELETE /comments/:id. The gate decides before any
// delete is issued: only the comment's author or an admin may remove
// it.
func (h *CommentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	comment, err := h.repo.GetComment(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !authz.CanDeleteComment(identityFrom(c), comment) {
		c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
		return
	}
	if err := h.repo.DeleteComment(c.Request.Context(), id, comment.PostID); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"id": id})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BAZ1995/Theblog.io/internal/core/auth"
	"github.com/BAZ1995/Theblog.io/internal/domain"
	mdw "github.com/BAZ1995/Theblog.io/internal/transport/http/middleware"
	resp "github.com/BAZ1995/Theblog.io/internal/transport/http/response"
)

// identityFrom derives the acting identity from the request's parsed
// claims. Anonymous requests get the zero identity.
func identityFrom(c *gin.Context) domain.Identity {
	v, ok := c.Get(mdw.KeyClaims)
	if !ok {
		return domain.Identity{}
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return domain.Identity{}
	}
	return domain.Identity{UserID: claims.UID, IsAdmin: claims.Role == domain.RoleAdmin}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(mdw.KeyClaims); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// fail maps the domain error taxonomy onto the response envelope.
// Gateway messages pass through verbatim.
func fail(c *gin.Context, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		ae *domain.AuthError
		ge *domain.GatewayError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, ve.Error()))
	case errors.As(err, &nf):
		c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, nf.Error()))
	case errors.As(err, &ae):
		c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, ae.Error()))
	case errors.As(err, &ge):
		c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, ge.Error()))
	default:
		c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, err.Error()))
	}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, resp.OK(data))
}

// Package authz derives permitted actions from identity and resource
// ownership. Decisions are pure: no gateway call is ever issued here,
// which is what lets callers deny before a round-trip.
package authz

import "github.com/BAZ1995/Theblog.io/internal/domain"

type Decision int

const (
	Deny Decision = iota
	Allow
	// Undetermined means the session is still resolving; callers must
	// suspend the decision, not redirect. Treating it as Deny is the
	// load-then-redirect race this gate exists to avoid.
	Undetermined
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Undetermined:
		return "undetermined"
	}
	return "deny"
}

// CanViewPost: published posts are public; drafts are admin-only.
// Author and admin are the same trust tier here — there is exactly one
// privileged role, no per-post ownership.
func CanViewPost(id domain.Identity, p *domain.Post) bool {
	if p == nil {
		return false
	}
	return p.Published || id.IsAdmin
}

func CanEditPost(id domain.Identity) bool { return id.IsAdmin }

func CanDeletePost(id domain.Identity) bool { return id.IsAdmin }

// CanDeleteComment: the comment's own author, or an admin. Guest
// comments have no owner, so only an admin may remove them.
func CanDeleteComment(id domain.Identity, c *domain.Comment) bool {
	if c == nil {
		return false
	}
	if id.IsAdmin {
		return true
	}
	return c.UserID != nil && id.UserID != "" && *c.UserID == id.UserID
}

// CanCreateComment is unconditional: anonymous comments are allowed.
func CanCreateComment() bool { return true }

// AdminAccess gates admin-only surfaces on the resolved session state.
func AdminAccess(st domain.AuthState, id domain.Identity) Decision {
	switch st {
	case domain.AuthUnknown, domain.AuthLoading:
		return Undetermined
	case domain.AuthAuthenticated:
		if id.IsAdmin {
			return Allow
		}
	}
	return Deny
}

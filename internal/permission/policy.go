package permission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// Policy decides whether a user may perform an action.
type Policy interface {
	// UserHasPermission reports whether the user may perform the action.
	UserHasPermission(ctx context.Context, user *storage.User, action string) (bool, error)
	// UserHasAnyPermission reports whether the user may perform at least one
	// of the actions.
	UserHasAnyPermission(ctx context.Context, user *storage.User, actions []string) (bool, error)
}

// PagePermissionPolicy implements Policy over group page permissions: an
// action is allowed when the user is an active superuser or one of their
// groups holds a grant of that type on any page.
type PagePermissionPolicy struct {
	dir    Directory
	grants Grants
}

// NewPagePermissionPolicy creates a PagePermissionPolicy over the given stores.
func NewPagePermissionPolicy(dir Directory, grants Grants) *PagePermissionPolicy {
	return &PagePermissionPolicy{dir: dir, grants: grants}
}

// UserHasPermission reports whether the user may perform the action.
func (p *PagePermissionPolicy) UserHasPermission(ctx context.Context, user *storage.User, action string) (bool, error) {
	if !user.IsActive {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	groupIDs, err := p.dir.GroupsOfUser(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("resolving groups of user %q: %w", user.ID, err)
	}
	ok, err := p.grants.HasGrantsOfType(ctx, groupIDs, action)
	if err != nil {
		return false, fmt.Errorf("checking %q grants for user %q: %w", action, user.ID, err)
	}
	return ok, nil
}

// UserHasAnyPermission reports whether the user may perform at least one of
// the actions.
func (p *PagePermissionPolicy) UserHasAnyPermission(ctx context.Context, user *storage.User, actions []string) (bool, error) {
	for _, action := range actions {
		ok, err := p.UserHasPermission(ctx, user, action)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type userCtxKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *storage.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the authenticated user stored in the context.
func UserFromContext(ctx context.Context) (*storage.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(*storage.User)
	return u, ok
}

// Checker produces HTTP middleware guards backed by a Policy.
type Checker struct {
	policy Policy
}

// NewChecker creates a Checker for the given policy.
func NewChecker(policy Policy) *Checker {
	return &Checker{policy: policy}
}

// Require returns middleware that rejects requests whose user lacks the
// action permission.
func (c *Checker) Require(action string) func(http.Handler) http.Handler {
	return c.guard(func(ctx context.Context, u *storage.User) (bool, error) {
		return c.policy.UserHasPermission(ctx, u, action)
	})
}

// RequireAny returns middleware that rejects requests whose user lacks all of
// the action permissions.
func (c *Checker) RequireAny(actions ...string) func(http.Handler) http.Handler {
	return c.guard(func(ctx context.Context, u *storage.User) (bool, error) {
		return c.policy.UserHasAnyPermission(ctx, u, actions)
	})
}

func (c *Checker) guard(test func(context.Context, *storage.User) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			allowed, err := test(r.Context(), user)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "permission check failed")
				return
			}
			if !allowed {
				writeJSONError(w, http.StatusForbidden, "permission denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Package permission resolves which users hold page permissions and provides
// policy guards for HTTP handlers. Group page permissions are inherited: a
// grant on a page applies to the page and all of its descendants.
package permission

import (
	"context"
	"fmt"

	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// Directory is the read-only view of the user directory the resolver needs.
type Directory interface {
	ActiveUsersInGroups(ctx context.Context, groupIDs []int64) ([]storage.User, error)
	ActiveSuperusers(ctx context.Context) ([]storage.User, error)
	GroupsOfUser(ctx context.Context, userID string) ([]int64, error)
}

// Grants is the read-only view of group page permissions the resolver needs.
type Grants interface {
	GrantsFor(ctx context.Context, permissionType string, pageIDs []string) ([]storage.GroupPagePermission, error)
	HasGrantsForGroups(ctx context.Context, groupIDs []int64) (bool, error)
	HasGrantsOfType(ctx context.Context, groupIDs []int64, permissionType string) (bool, error)
}

// PageTree exposes the ancestor chain of the content tree.
type PageTree interface {
	AncestorsOf(ctx context.Context, pageID string) ([]string, error)
}

// Resolver computes recipient sets from page permissions.
type Resolver struct {
	dir    Directory
	grants Grants
	tree   PageTree
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(dir Directory, grants Grants, tree PageTree) *Resolver {
	return &Resolver{dir: dir, grants: grants, tree: tree}
}

// UsersWithPagePermission returns the distinct active users who hold the
// given permission type on the page, either through a group grant on the page
// or any of its ancestors, or (when includeSuperusers is set) by being a
// superuser. Inactive users are never included. Result order is unspecified.
func (r *Resolver) UsersWithPagePermission(ctx context.Context, pageID, permissionType string, includeSuperusers bool) ([]storage.User, error) {
	ancestors, err := r.tree.AncestorsOf(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("resolving ancestors of page %q: %w", pageID, err)
	}
	chain := append(ancestors, pageID)

	grants, err := r.grants.GrantsFor(ctx, permissionType, chain)
	if err != nil {
		return nil, fmt.Errorf("resolving %q grants: %w", permissionType, err)
	}

	groupSeen := map[int64]bool{}
	var groupIDs []int64
	for _, g := range grants {
		if !groupSeen[g.GroupID] {
			groupSeen[g.GroupID] = true
			groupIDs = append(groupIDs, g.GroupID)
		}
	}

	members, err := r.dir.ActiveUsersInGroups(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving group members: %w", err)
	}

	seen := map[string]bool{}
	var users []storage.User
	for _, u := range members {
		if !seen[u.ID] {
			seen[u.ID] = true
			users = append(users, u)
		}
	}

	if includeSuperusers {
		supers, err := r.dir.ActiveSuperusers(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving superusers: %w", err)
		}
		for _, u := range supers {
			if !seen[u.ID] {
				seen[u.ID] = true
				users = append(users, u)
			}
		}
	}

	return users, nil
}

// UserHasAnyPagePermission reports whether the user can manage any page at
// all: inactive users cannot, superusers always can, and everyone else needs
// at least one group holding any page permission.
func (r *Resolver) UserHasAnyPagePermission(ctx context.Context, user *storage.User) (bool, error) {
	if !user.IsActive {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	groupIDs, err := r.dir.GroupsOfUser(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("resolving groups of user %q: %w", user.ID, err)
	}
	ok, err := r.grants.HasGrantsForGroups(ctx, groupIDs)
	if err != nil {
		return false, fmt.Errorf("checking grants for user %q: %w", user.ID, err)
	}
	return ok, nil
}

package session

import "slices"

// User is the authenticated account. Permissions and roles have set
// semantics: duplicates are dropped, first-seen order is kept.
type User struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// Requirements lists what an action needs: every permission and at least
// one of the roles. Empty lists impose nothing.
type Requirements struct {
	Permissions []string
	Roles       []string
}

// NewUser builds a user with deduplicated permissions and roles.
func NewUser(email string, permissions, roles []string) *User {
	return &User{
		Email:       email,
		Permissions: uniq(permissions),
		Roles:       uniq(roles),
	}
}

func (u *User) HasPermission(p string) bool {
	return u != nil && slices.Contains(u.Permissions, p)
}

func (u *User) HasRole(r string) bool {
	return u != nil && slices.Contains(u.Roles, r)
}

// Can reports whether u satisfies req. A nil user satisfies nothing.
func (u *User) Can(req Requirements) bool {
	if u == nil {
		return false
	}
	for _, p := range req.Permissions {
		if !u.HasPermission(p) {
			return false
		}
	}
	if len(req.Roles) == 0 {
		return true
	}
	return slices.ContainsFunc(req.Roles, u.HasRole)
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	return &User{
		Email:       u.Email,
		Permissions: slices.Clone(u.Permissions),
		Roles:       slices.Clone(u.Roles),
	}
}

func uniq(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

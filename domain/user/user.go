// Package user provides the read-only user projection consumed by the
// analytics engine. All functions are pure - no side effects.
package user

import "time"

// Role classifies a platform account.
type Role string

const (
	RoleFollower Role = "follower"
	RoleCreator  Role = "creator"
	RoleBrand    Role = "brand"
	RoleAdmin    Role = "admin"
)

// Plan identifies the subscription tier.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanPro   Plan = "pro"
	PlanBrand Plan = "brand"
)

// Record is a read-only projection of a user account (value type).
// FirstProductAt and UpgradeAt are set once and never cleared; nil means the
// anchor event has not happened. ActiveUntil is derived by the projection
// from the user's last qualifying activity plus the inactivity threshold.
type Record struct {
	ID             string
	SignupAt       time.Time
	FirstProductAt *time.Time
	UpgradeAt      *time.Time
	Role           Role
	Plan           Plan
	ActiveUntil    time.Time
}

// IsActiveAt reports whether the user counts as active at the given instant.
func (r Record) IsActiveAt(t time.Time) bool {
	return !r.ActiveUntil.Before(t)
}

// Filter selects users from the projection. Zero fields match everything.
type Filter struct {
	Role           Role      // "" = all roles
	Plan           Plan      // "" = all plans
	SignedUpAfter  time.Time // inclusive; zero = unbounded
	SignedUpBefore time.Time // exclusive; zero = unbounded
}

// Matches reports whether r passes the filter.
// This is a PURE function.
func (f Filter) Matches(r Record) bool {
	if f.Role != "" && r.Role != f.Role {
		return false
	}
	if f.Plan != "" && r.Plan != f.Plan {
		return false
	}
	if !f.SignedUpAfter.IsZero() && r.SignupAt.Before(f.SignedUpAfter) {
		return false
	}
	if !f.SignedUpBefore.IsZero() && !r.SignupAt.Before(f.SignedUpBefore) {
		return false
	}
	return true
}

// IDs returns the IDs of the given users, in order.
// This is a PURE function.
func IDs(users []Record) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

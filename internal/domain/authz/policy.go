package authz

import (
	"library-api/internal/domain/user"

	"github.com/google/uuid"
)

// Principal is the authenticated caller as seen by the rule engine.
type Principal struct {
	ID   uuid.UUID
	Role user.Role
}

// Resource carries the ownership information a policy decision needs.
// OwnedBy is uuid.Nil for resources without an owner (catalog, analytics).
type Resource struct {
	OwnedBy uuid.UUID
}

type Action string

const (
	ActionBorrowView        Action = "borrow:view"
	ActionBorrowRenew       Action = "borrow:renew"
	ActionBorrowReturn      Action = "borrow:return"
	ActionBorrowListAll     Action = "borrow:list_all"
	ActionReservationCancel Action = "reservation:cancel"
	ActionReservationSweep  Action = "reservation:sweep"
	ActionBookManage        Action = "book:manage"
	ActionUserList          Action = "user:list"
	ActionUserManage        Action = "user:manage"
	ActionAnalyticsView     Action = "analytics:view"
)

type rule struct {
	minRole       user.Role
	ownerOverride bool
}

var roleLevel = map[user.Role]int{
	user.RoleStudent: 1,
	user.RoleStaff:   2,
	user.RoleAdmin:   3,
}

// One table instead of role conditionals scattered through handlers.
var rules = map[Action]rule{
	ActionBorrowView:        {minRole: user.RoleStaff, ownerOverride: true},
	ActionBorrowRenew:       {minRole: user.RoleStaff, ownerOverride: true},
	ActionBorrowReturn:      {minRole: user.RoleStaff},
	ActionBorrowListAll:     {minRole: user.RoleStaff},
	ActionReservationCancel: {minRole: user.RoleStaff, ownerOverride: true},
	ActionReservationSweep:  {minRole: user.RoleStaff},
	ActionBookManage:        {minRole: user.RoleStaff},
	ActionUserList:          {minRole: user.RoleStaff},
	ActionUserManage:        {minRole: user.RoleAdmin},
	ActionAnalyticsView:     {minRole: user.RoleStaff},
}

// Can decides whether the principal may perform action on resource.
// Unknown actions are denied.
func Can(p Principal, action Action, res Resource) bool {
	r, ok := rules[action]
	if !ok {
		return false
	}
	if r.ownerOverride && res.OwnedBy != uuid.Nil && res.OwnedBy == p.ID {
		return true
	}
	level, ok := roleLevel[p.Role]
	if !ok {
		return false
	}
	return level >= roleLevel[r.minRole]
}

// HasMinimumRole is the route-level variant used by middleware, where no
// resource is in scope yet.
func HasMinimumRole(role, minRole user.Role) bool {
	level, ok := roleLevel[role]
	minLevel, minOK := roleLevel[minRole]
	return ok && minOK && level >= minLevel
}

// AngelaMos | 2026
// policy.go

// Package policy decides what an authenticated caller may do with each kind
// of resource. Decisions depend only on the caller's role, the action and the
// ownership of the target, never on storage.
package policy

import (
	"fmt"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSales    Role = "sales"
	RoleTech     Role = "tech"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleTech, RoleCustomer:
		return true
	}
	return false
}

func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSales || r == RoleTech
}

type Resource string

const (
	ResourceUser         Resource = "user"
	ResourceCustomer     Resource = "customer"
	ResourceServicePlan  Resource = "service_plan"
	ResourceSubscription Resource = "subscription"
	ResourcePayment      Resource = "payment"
	ResourceTicket       Resource = "ticket"
	ResourceEquipment    Resource = "equipment"
	ResourceNetworkNode  Resource = "network_node"
	ResourceDashboard    Resource = "dashboard"
)

type Action string

const (
	ActionRead        Action = "read"
	ActionList        Action = "list"
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionSetStatus   Action = "set_status"
	ActionAssign      Action = "assign"
	ActionSetPriority Action = "set_priority"
	ActionChangeRole  Action = "change_role"
)

// Claim is the identity carried by every authenticated call.
type Claim struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (c Claim) IsCustomer() bool {
	return c.Role == RoleCustomer
}

// Target describes who owns the resource being acted on. CustomerID is the
// owning customer profile; UserID is set for user accounts. Empty fields mean
// the action is not tied to a specific owner (listing, creation by staff).
type Target struct {
	CustomerID string
	UserID     string
	// CallerCustomerID is the customer profile linked to the caller, resolved
	// before any lookup. Only meaningful for the customer role.
	CallerCustomerID string
}

type scope int

const (
	scopeNone scope = iota
	scopeOwn
	scopeAny
)

type grants map[Resource]map[Action]scope

func all(actions ...Action) map[Action]scope {
	m := make(map[Action]scope, len(actions))
	for _, a := range actions {
		m[a] = scopeAny
	}
	return m
}

func own(actions ...Action) map[Action]scope {
	m := make(map[Action]scope, len(actions))
	for _, a := range actions {
		m[a] = scopeOwn
	}
	return m
}

var selfOnly = own(ActionRead, ActionUpdate)

var table = map[Role]grants{
	RoleSales: {
		ResourceCustomer: all(
			ActionRead, ActionList, ActionCreate, ActionUpdate, ActionDelete,
		),
		ResourceSubscription: all(
			ActionRead, ActionList, ActionCreate, ActionUpdate, ActionSetStatus,
		),
		ResourceServicePlan: all(ActionRead, ActionList),
		ResourcePayment:     all(ActionRead, ActionList, ActionCreate),
		ResourceTicket:      all(ActionRead, ActionList, ActionCreate),
		ResourceEquipment:   all(ActionRead, ActionList),
		ResourceDashboard:   all(ActionRead),
		ResourceUser:        selfOnly,
	},
	RoleTech: {
		ResourceCustomer:     all(ActionRead, ActionList),
		ResourceSubscription: all(ActionRead, ActionList),
		ResourceServicePlan:  all(ActionRead, ActionList),
		ResourcePayment:      all(ActionRead),
		ResourceTicket: all(
			ActionRead, ActionList, ActionCreate,
			ActionSetStatus, ActionAssign, ActionSetPriority,
		),
		ResourceEquipment: all(
			ActionRead, ActionList, ActionCreate, ActionUpdate, ActionDelete,
		),
		ResourceNetworkNode: all(
			ActionRead, ActionList, ActionCreate, ActionUpdate,
		),
		ResourceDashboard: all(ActionRead),
		ResourceUser:      selfOnly,
	},
	RoleCustomer: {
		ResourceCustomer:     own(ActionRead, ActionUpdate),
		ResourceSubscription: own(ActionRead, ActionList),
		ResourcePayment:      own(ActionRead, ActionList),
		ResourceTicket:       own(ActionRead, ActionList, ActionCreate),
		ResourceEquipment:    own(ActionRead, ActionList),
		ResourceServicePlan:  all(ActionRead, ActionList),
		ResourceUser:         selfOnly,
	},
}

// Authorize returns nil when claim may perform action on resource, otherwise
// an error wrapping core.ErrForbidden.
func Authorize(claim Claim, resource Resource, action Action, target Target) error {
	if !claim.Role.Valid() || claim.UserID == "" {
		return deny(claim, resource, action)
	}

	if claim.Role == RoleAdmin {
		if resource == ResourceUser && action == ActionDelete &&
			target.UserID == claim.UserID {
			return deny(claim, resource, action)
		}
		return nil
	}

	switch scopeFor(claim.Role, resource, action) {
	case scopeAny:
		return nil
	case scopeOwn:
		if ownsTarget(claim, resource, target) {
			return nil
		}
	case scopeNone:
	}

	return deny(claim, resource, action)
}

// Allowed is Authorize as a predicate.
func Allowed(claim Claim, resource Resource, action Action, target Target) bool {
	return Authorize(claim, resource, action, target) == nil
}

func scopeFor(role Role, resource Resource, action Action) scope {
	byResource, ok := table[role]
	if !ok {
		return scopeNone
	}
	byAction, ok := byResource[resource]
	if !ok {
		return scopeNone
	}
	return byAction[action]
}

func ownsTarget(claim Claim, resource Resource, target Target) bool {
	if resource == ResourceUser {
		return target.UserID != "" && target.UserID == claim.UserID
	}

	return target.CallerCustomerID != "" &&
		target.CustomerID == target.CallerCustomerID
}

func deny(claim Claim, resource Resource, action Action) error {
	return fmt.Errorf(
		"%s may not %s %s: %w",
		claim.Role,
		action,
		resource,
		core.ErrForbidden,
	)
}

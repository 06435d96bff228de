// Package access decides which actors may perform which operations on
// rooms and bookings.
package access

type Role string

const (
	RoleClient Role = "Client"
	RoleStaff  Role = "Staff"
)

type Operation int

const (
	OpRead Operation = iota + 1
	OpCreate
	OpUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type Resource int

const (
	ResourceRoom Resource = iota + 1
	ResourceBooking
	ResourceSearch
)

func (r Resource) String() string {
	switch r {
	case ResourceRoom:
		return "room"
	case ResourceBooking:
		return "booking"
	case ResourceSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Actor is the caller as resolved by the transport layer. The zero value
// is an anonymous caller.
type Actor struct {
	UserID int64
	Roles  []Role
	// Admin bypasses the rule table.
	Admin bool
}

func Anonymous() Actor { return Actor{} }

func (a Actor) Authenticated() bool {
	return a.UserID != 0 || a.Admin || len(a.Roles) > 0
}

func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// rule lists who may perform an operation; Everyone admits anonymous callers.
type rule struct {
	Everyone bool
	Roles    []Role
}

type key struct {
	op  Operation
	res Resource
}

var (
	anyone    = rule{Everyone: true}
	staffOnly = rule{Roles: []Role{RoleStaff}}
)

// Clients may create bookings but never modify or delete one, including
// their own.
var table = map[key]rule{
	{OpRead, ResourceRoom}:   anyone,
	{OpCreate, ResourceRoom}: staffOnly,
	{OpUpdate, ResourceRoom}: staffOnly,
	{OpDelete, ResourceRoom}: staffOnly,

	{OpRead, ResourceBooking}:   anyone,
	{OpCreate, ResourceBooking}: {Roles: []Role{RoleClient, RoleStaff}},
	{OpUpdate, ResourceBooking}: staffOnly,
	{OpDelete, ResourceBooking}: staffOnly,

	{OpRead, ResourceSearch}: staffOnly,
}

// Authorize reports whether actor may perform op on res. Pairs missing
// from the table are denied to everyone but administrators.
func Authorize(actor Actor, op Operation, res Resource) bool {
	if actor.Admin {
		return true
	}
	r, ok := table[key{op, res}]
	if !ok {
		return false
	}
	if r.Everyone {
		return true
	}
	for _, role := range r.Roles {
		if actor.HasRole(role) {
			return true
		}
	}
	return false
}

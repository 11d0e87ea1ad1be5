package workflow

import "book-warehouse-api-server/internal/models"

// Roles recognised by the transition gates.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

type edge struct {
	from, to models.Status
}

// Transition tables. An order may only move along a defined edge; everything
// else is an illegal transition. Terminal states have no outgoing edges.
var exportNext = map[models.Status]map[models.Status]bool{
	models.StatusNew:       {models.StatusPending: true, models.StatusRejected: true, models.StatusCancelled: true},
	models.StatusPending:   {models.StatusApproved: true, models.StatusCancelled: true},
	models.StatusApproved:  {models.StatusShipping: true},
	models.StatusShipping:  {models.StatusCompleted: true},
	models.StatusCompleted: {},
	models.StatusRejected:  {},
	models.StatusCancelled: {},
}

var importNext = map[models.Status]map[models.Status]bool{
	models.StatusNew:     {models.StatusApprove: true},
	models.StatusApprove: {models.StatusReceive: true, models.StatusNew: true},
	models.StatusReceive: {models.StatusDone: true},
	models.StatusDone:    {},
}

// Role gates per edge. An empty entry means the edge exists but is reserved to
// the order's creator (see creatorOnly).
var exportRoles = map[edge][]string{
	{models.StatusNew, models.StatusPending}:        {RoleAdmin, RoleManager, RoleEmployee},
	{models.StatusNew, models.StatusRejected}:       {RoleAdmin, RoleManager},
	{models.StatusNew, models.StatusCancelled}:      {RoleAdmin, RoleManager, RoleEmployee},
	{models.StatusPending, models.StatusCancelled}:  {RoleAdmin, RoleManager, RoleEmployee},
	{models.StatusPending, models.StatusApproved}:   {RoleAdmin, RoleManager},
	{models.StatusApproved, models.StatusShipping}:  {RoleAdmin, RoleManager, RoleEmployee},
	{models.StatusShipping, models.StatusCompleted}: {RoleAdmin, RoleManager, RoleEmployee},
}

var importRoles = map[edge][]string{
	{models.StatusNew, models.StatusApprove}:     {RoleAdmin, RoleManager},
	{models.StatusApprove, models.StatusNew}:     {RoleAdmin, RoleManager},
	{models.StatusApprove, models.StatusReceive}: {RoleAdmin, RoleManager, RoleEmployee},
	// WMS bin approval is restricted to admin and manager.
	{models.StatusReceive, models.StatusDone}: {RoleAdmin, RoleManager},
}

// Edges only the order's creator may drive, regardless of role.
var creatorOnlyEdges = map[models.OrderType]map[edge]bool{
	models.OrderTypeExport: {
		{models.StatusNew, models.StatusPending}:       true,
		{models.StatusNew, models.StatusCancelled}:     true,
		{models.StatusPending, models.StatusCancelled}: true,
	},
}

func nextTable(t models.OrderType) map[models.Status]map[models.Status]bool {
	if t == models.OrderTypeImport {
		return importNext
	}
	return exportNext
}

func roleTable(t models.OrderType) map[edge][]string {
	if t == models.OrderTypeImport {
		return importRoles
	}
	return exportRoles
}

// CanTransition reports whether to is a defined successor of from for the
// given order type.
func CanTransition(t models.OrderType, from, to models.Status) bool {
	return nextTable(t)[from][to]
}

// IsTerminal reports whether the status has no outgoing edges.
func IsTerminal(t models.OrderType, s models.Status) bool {
	next, known := nextTable(t)[s]
	return known && len(next) == 0
}

// InitialStatus is the state every order is created in.
func InitialStatus() models.Status { return models.StatusNew }

// Authorize checks the role gate for an edge, plus the creator-only rule.
// The edge itself must already be known to be legal.
func Authorize(t models.OrderType, from, to models.Status, actor Actor, createdBy string) error {
	if creatorOnlyEdges[t][edge{from, to}] {
		// Admins may act on any order; everyone else only on their own.
		if actor.Role != RoleAdmin && actor.ID != createdBy {
			return &ForbiddenError{Reason: "only the order creator may perform this action"}
		}
	}
	for _, role := range roleTable(t)[edge{from, to}] {
		if role == actor.Role {
			return nil
		}
	}
	return &ForbiddenError{Reason: "role " + actor.Role + " may not perform this transition"}
}

package workflow

import (
	"errors"
	"testing"

	"book-warehouse-api-server/internal/models"
)

func TestCanTransition_ExportHappyPath(t *testing.T) {
	path := []models.Status{
		models.StatusNew, models.StatusPending, models.StatusApproved,
		models.StatusShipping, models.StatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(models.OrderTypeExport, path[i], path[i+1]) {
			t.Errorf("expected %s -> %s to be legal", path[i], path[i+1])
		}
	}
}

func TestCanTransition_ExportIllegal(t *testing.T) {
	cases := []struct{ from, to models.Status }{
		{models.StatusNew, models.StatusApproved},
		{models.StatusNew, models.StatusShipping},
		{models.StatusPending, models.StatusShipping},
		{models.StatusPending, models.StatusRejected},
		{models.StatusApproved, models.StatusCancelled},
		{models.StatusShipping, models.StatusCancelled},
		{models.StatusCompleted, models.StatusShipping},
		{models.StatusRejected, models.StatusNew},
		{models.StatusCancelled, models.StatusPending},
	}
	for _, c := range cases {
		if CanTransition(models.OrderTypeExport, c.from, c.to) {
			t.Errorf("expected %s -> %s to be illegal", c.from, c.to)
		}
	}
}

func TestCanTransition_ImportEdges(t *testing.T) {
	legal := []struct{ from, to models.Status }{
		{models.StatusNew, models.StatusApprove},
		{models.StatusApprove, models.StatusReceive},
		{models.StatusApprove, models.StatusNew}, // reject back for revision
		{models.StatusReceive, models.StatusDone},
	}
	for _, c := range legal {
		if !CanTransition(models.OrderTypeImport, c.from, c.to) {
			t.Errorf("expected %s -> %s to be legal", c.from, c.to)
		}
	}
	illegal := []struct{ from, to models.Status }{
		{models.StatusNew, models.StatusReceive},
		{models.StatusNew, models.StatusDone},
		{models.StatusReceive, models.StatusApprove},
		{models.StatusDone, models.StatusReceive},
		{models.StatusDone, models.StatusNew},
	}
	for _, c := range illegal {
		if CanTransition(models.OrderTypeImport, c.from, c.to) {
			t.Errorf("expected %s -> %s to be illegal", c.from, c.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []struct {
		typ models.OrderType
		s   models.Status
	}{
		{models.OrderTypeExport, models.StatusCompleted},
		{models.OrderTypeExport, models.StatusRejected},
		{models.OrderTypeExport, models.StatusCancelled},
		{models.OrderTypeImport, models.StatusDone},
	}
	for _, c := range terminal {
		if !IsTerminal(c.typ, c.s) {
			t.Errorf("expected %s %s to be terminal", c.typ, c.s)
		}
	}
	if IsTerminal(models.OrderTypeExport, models.StatusShipping) {
		t.Error("Shipping must not be terminal")
	}
	if IsTerminal(models.OrderTypeImport, models.StatusApprove) {
		t.Error("Approve must not be terminal")
	}
}

func TestAuthorize_RoleGates(t *testing.T) {
	creator := "user-1"

	// Pending -> Approved is admin/manager only.
	err := Authorize(models.OrderTypeExport, models.StatusPending, models.StatusApproved,
		Actor{ID: "user-2", Role: RoleEmployee}, creator)
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for employee approval, got: %v", err)
	}

	err = Authorize(models.OrderTypeExport, models.StatusPending, models.StatusApproved,
		Actor{ID: "user-2", Role: RoleManager}, creator)
	if err != nil {
		t.Errorf("expected manager approval to pass, got: %v", err)
	}

	// Import WMS approval is admin/manager only.
	err = Authorize(models.OrderTypeImport, models.StatusReceive, models.StatusDone,
		Actor{ID: "user-2", Role: RoleEmployee}, creator)
	if !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for employee WMS approval, got: %v", err)
	}
}

func TestAuthorize_CreatorOnly(t *testing.T) {
	creator := "user-1"

	// A different employee may not submit someone else's draft.
	err := Authorize(models.OrderTypeExport, models.StatusNew, models.StatusPending,
		Actor{ID: "user-2", Role: RoleEmployee}, creator)
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for non-creator submit, got: %v", err)
	}

	// The creator may.
	err = Authorize(models.OrderTypeExport, models.StatusNew, models.StatusPending,
		Actor{ID: creator, Role: RoleEmployee}, creator)
	if err != nil {
		t.Errorf("expected creator submit to pass, got: %v", err)
	}

	// Admins act on any order.
	err = Authorize(models.OrderTypeExport, models.StatusPending, models.StatusCancelled,
		Actor{ID: "admin-1", Role: RoleAdmin}, creator)
	if err != nil {
		t.Errorf("expected admin cancel to pass, got: %v", err)
	}
}

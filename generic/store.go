/*
store.go - Audit log interface

PURPOSE:
  Records who did what when. Decisions and coverage actions append an
  entry after each committed step, so a partially completed workflow can
  be reconstructed by an operator.

APPEND-ONLY CONTRACT:
  Entries are never updated or deleted.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: audit_log table
  - store/memory/memory.go: In-memory for testing
*/
package generic

import (
	"context"
	"time"
)

// AuditEntry records who did what when.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	ActorID   string // who performed the action
	Action    AuditAction
	CompanyID string
	EntityID  EntityID
	Payload   map[string]any // action-specific data
}

type AuditAction string

const (
	AuditAbsenceSubmitted AuditAction = "absence_submitted"
	AuditAbsenceApproved  AuditAction = "absence_approved"
	AuditAbsenceRejected  AuditAction = "absence_rejected"
	AuditContractUpdated  AuditAction = "contract_updated"
	AuditContractFailed   AuditAction = "contract_update_failed"
	AuditShiftUncovered   AuditAction = "shift_uncovered"
	AuditShiftReplaced    AuditAction = "shift_replaced"
	AuditWeekStatus       AuditAction = "weekly_shift_status"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	CompanyID *string
	EntityID  *EntityID
	ActorID   *string
	Actions   []AuditAction
}

// Matches reports whether entry passes every set field of the filter.
func (f AuditFilter) Matches(entry AuditEntry) bool {
	if f.CompanyID != nil && entry.CompanyID != *f.CompanyID {
		return false
	}
	if f.EntityID != nil && entry.EntityID != *f.EntityID {
		return false
	}
	if f.ActorID != nil && entry.ActorID != *f.ActorID {
		return false
	}
	if len(f.Actions) == 0 {
		return true
	}
	for _, a := range f.Actions {
		if entry.Action == a {
			return true
		}
	}
	return false
}

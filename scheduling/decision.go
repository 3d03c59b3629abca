package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
)

// =============================================================================
// ABSENCE DECISION WORKFLOW
// =============================================================================
//
//   PENDING --approve--> APPROVED
//   PENDING --reject---> REJECTED
//
// Both targets are terminal. Deciding runs two writes against independent
// stores, in this order:
//
//   1. absence status   (failure aborts everything)
//   2. contract quotas  (failure is reported, absence stays committed)
//
// The second write is skipped for rejections, missing contracts, untracked
// absence types and when the ledger leaves the contract unchanged.

// AbsenceSubmitter persists a new absence. Implemented by store/sqlite and
// store/memory next to AbsenceStore.
type AbsenceSubmitter interface {
	SaveAbsence(ctx context.Context, absence Absence) error
}

type DecisionService struct {
	Absences  AbsenceStore
	Contracts ContractStore
	AuditLog  generic.AuditLog // optional
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewDecisionService(absences AbsenceStore, contracts ContractStore, logger *zap.Logger) *DecisionService {
	return &DecisionService{
		Absences:  absences,
		Contracts: contracts,
		Logger:    logger,
		Now:       time.Now,
	}
}

// DecisionResult is what the caller gets back from Decide.
type DecisionResult struct {
	Absence               Absence
	Contract              *Contract // set when a contract write succeeded
	ContractUpdateSuccess bool
	ContractError         string
	Approved              bool
	// CoverageRequired is set for approved sick leave; the caller should
	// open a coverage plan for the employee's shifts.
	CoverageRequired bool
}

// PartiallyCompleted is true when the absence was committed but the
// contract write failed and needs manual reconciliation.
func (r DecisionResult) PartiallyCompleted() bool { return !r.ContractUpdateSuccess }

// Decide approves or rejects a pending absence. contract may be nil.
func (ds *DecisionService) Decide(
	ctx context.Context,
	approverID string,
	absence Absence,
	approve bool,
	comment string,
	contract *Contract,
) generic.Resource[DecisionResult] {
	log := ds.logger().With(
		zap.String("absence_id", string(absence.ID)),
		zap.String("approver_id", approverID),
		zap.Bool("approve", approve),
	)

	updated, err := DecideAbsence(absence, approverID, approve, generic.DateOf(ds.now()), comment)
	if err != nil {
		log.Warn("absence decision refused", zap.Error(err))
		return generic.Failure[DecisionResult](fmt.Errorf("%w: %w", generic.ErrDecisionFailed, err))
	}

	if err := ds.Absences.UpdateAbsence(ctx, updated); err != nil {
		log.Error("failed to persist absence decision", zap.Error(err))
		return generic.Failure[DecisionResult](fmt.Errorf("%w: failed to update absence: %w", generic.ErrDecisionFailed, err))
	}
	ds.audit(ctx, approverID, updated, decisionAction(approve), map[string]any{"comment": comment})
	log.Info("absence decided", zap.String("status", string(updated.Status)))

	result := DecisionResult{
		Absence:               updated,
		ContractUpdateSuccess: true,
		Approved:              approve,
		CoverageRequired:      approve && updated.Type == AbsenceSickLeave,
	}

	if !approve || contract == nil {
		return generic.Success(result)
	}

	next := ApplyApprovedAbsence(*contract, updated)
	if next.Equal(*contract) {
		return generic.Success(result)
	}

	if err := ds.Contracts.UpdateContract(ctx, next); err != nil {
		log.Error("absence approved but contract update failed", zap.Error(err))
		result.ContractUpdateSuccess = false
		result.ContractError = err.Error()
		ds.audit(ctx, approverID, updated, generic.AuditContractFailed, map[string]any{"error": err.Error()})
		return generic.Success(result)
	}

	result.Contract = &next
	ds.audit(ctx, approverID, updated, generic.AuditContractUpdated, map[string]any{
		"vacation_days_used": next.VacationDaysUsed.Value.String(),
		"rol_hours_used":     next.ROLHoursUsed.Value.String(),
		"sick_days_used":     next.SickDaysUsed.Value.String(),
	})
	return generic.Success(result)
}

// DecideAbsence builds the decided copy of a pending absence. Pure.
func DecideAbsence(absence Absence, approverID string, approve bool, today generic.TimePoint, comment string) (Absence, error) {
	to := AbsenceRejected
	if approve {
		to = AbsenceApproved
	}
	if absence.Status != AbsencePending {
		return absence, &generic.TransitionError{Kind: "absence", From: string(absence.Status), To: string(to)}
	}
	out := absence
	out.Status = to
	out.ApproverID = approverID
	out.ApprovalDate = &today
	out.Comment = comment
	return out, nil
}

// Submit stores a new pending absence. The store must also implement
// AbsenceSubmitter.
func (ds *DecisionService) Submit(ctx context.Context, absence Absence) generic.Resource[Absence] {
	if absence.Status != AbsencePending {
		return generic.Failure[Absence](&generic.TransitionError{Kind: "absence", From: string(absence.Status), To: string(AbsencePending)})
	}
	submitter, ok := ds.Absences.(AbsenceSubmitter)
	if !ok {
		return generic.Failure[Absence](fmt.Errorf("absence store cannot create records: %w", generic.ErrNotApplicable))
	}
	if absence.ID == "" {
		absence.ID = AbsenceID(uuid.NewString())
	}
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = ds.now()
	}
	if err := submitter.SaveAbsence(ctx, absence); err != nil {
		return generic.Failure[Absence](fmt.Errorf("failed to save absence: %w", err))
	}
	ds.audit(ctx, string(absence.EmployeeID), absence, generic.AuditAbsenceSubmitted, map[string]any{
		"type":   string(absence.Type),
		"period": absence.Period.String(),
	})
	return generic.Success(absence)
}

// History lists an employee's absences, optionally only those in status.
// Empty when nothing matches.
func (ds *DecisionService) History(ctx context.Context, employeeID EmployeeID, status AbsenceStatus) generic.Resource[[]Absence] {
	absences, err := ds.Absences.AbsencesForEmployee(ctx, employeeID)
	if err != nil {
		return generic.Failure[[]Absence](fmt.Errorf("failed to load absences of %s: %w", employeeID, err))
	}
	if status != "" {
		kept := absences[:0]
		for _, a := range absences {
			if a.Status == status {
				kept = append(kept, a)
			}
		}
		absences = kept
	}
	if len(absences) == 0 {
		return generic.Empty[[]Absence]()
	}
	return generic.Success(absences)
}

func decisionAction(approve bool) generic.AuditAction {
	if approve {
		return generic.AuditAbsenceApproved
	}
	return generic.AuditAbsenceRejected
}

func (ds *DecisionService) audit(ctx context.Context, actor string, a Absence, action generic.AuditAction, payload map[string]any) {
	if ds.AuditLog == nil {
		return
	}
	entry := generic.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: ds.now(),
		ActorID:   actor,
		Action:    action,
		CompanyID: string(a.CompanyID),
		EntityID:  generic.EntityID(a.ID),
		Payload:   payload,
	}
	if err := ds.AuditLog.Append(ctx, entry); err != nil {
		ds.logger().Warn("failed to append audit entry", zap.String("action", string(action)), zap.Error(err))
	}
}

func (ds *DecisionService) now() time.Time {
	if ds.Now == nil {
		return time.Now()
	}
	return ds.Now()
}

func (ds *DecisionService) logger() *zap.Logger {
	return loggerOrNop(ds.Logger)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
)

// =============================================================================
// SHIFT COVERAGE RESOLVER
// =============================================================================
//
// When sick leave is approved, every shift the employee holds inside the
// absence must be resolved before the workflow can be confirmed:
//
//   Uncover           the employee leaves the shift, the shift stays
//   Replace(emp)      emp takes the employee's place in the assignment list
//
// There is no default. A shift with no available replacement must be
// explicitly uncovered.

type ShiftActionKind string

const (
	ActionUncover ShiftActionKind = "uncover"
	ActionReplace ShiftActionKind = "replace"
)

// ShiftAction is the resolution chosen for one affected shift.
type ShiftAction struct {
	Kind        ShiftActionKind
	Replacement EmployeeID // only for ActionReplace
}

func Uncover() ShiftAction { return ShiftAction{Kind: ActionUncover} }

func Replace(candidate EmployeeID) ShiftAction {
	return ShiftAction{Kind: ActionReplace, Replacement: candidate}
}

func (a ShiftAction) IsValid() bool {
	switch a.Kind {
	case ActionUncover:
		return a.Replacement == ""
	case ActionReplace:
		return a.Replacement != ""
	}
	return false
}

// CoveragePlan tracks the resolution chosen for each affected shift. It is
// owned by the caller and handed to Confirm once complete.
type CoveragePlan struct {
	CompanyID      CompanyID
	AbsenceID      AbsenceID
	AbsentEmployee EmployeeID
	Shifts         []Shift
	Actions        map[ShiftID]ShiftAction
}

func newCoveragePlan(absence Absence, shifts []Shift) *CoveragePlan {
	return &CoveragePlan{
		CompanyID:      absence.CompanyID,
		AbsenceID:      absence.ID,
		AbsentEmployee: absence.EmployeeID,
		Shifts:         shifts,
		Actions:        make(map[ShiftID]ShiftAction, len(shifts)),
	}
}

// Resolve records the action for one affected shift, replacing any earlier
// choice.
func (p *CoveragePlan) Resolve(shiftID ShiftID, action ShiftAction) error {
	shift, ok := p.shift(shiftID)
	if !ok {
		return fmt.Errorf("shift %s is not affected by absence %s: %w", shiftID, p.AbsenceID, generic.ErrNotApplicable)
	}
	if !action.IsValid() {
		return fmt.Errorf("invalid action %q for shift %s: %w", action.Kind, shiftID, generic.ErrNotApplicable)
	}
	if action.Kind == ActionReplace && shift.HasEmployee(action.Replacement) {
		return fmt.Errorf("shift %s, employee %s: %w", shiftID, action.Replacement, generic.ErrDuplicateAssignment)
	}
	if p.Actions == nil {
		p.Actions = make(map[ShiftID]ShiftAction)
	}
	p.Actions[shiftID] = action
	return nil
}

// Unresolved lists affected shifts that still have no action, in plan order.
func (p *CoveragePlan) Unresolved() []ShiftID {
	var out []ShiftID
	for _, s := range p.Shifts {
		if _, ok := p.Actions[s.ID]; !ok {
			out = append(out, s.ID)
		}
	}
	return out
}

// CanConfirm is true once every affected shift has a resolution.
func (p *CoveragePlan) CanConfirm() bool { return len(p.Unresolved()) == 0 }

func (p *CoveragePlan) shift(id ShiftID) (Shift, bool) {
	for _, s := range p.Shifts {
		if s.ID == id {
			return s, true
		}
	}
	return Shift{}, false
}

// CoverageOutcome reports what Confirm applied.
type CoverageOutcome struct {
	Uncovered []ShiftID
	Replaced  map[ShiftID]EmployeeID
}

func (o CoverageOutcome) Applied() int { return len(o.Uncovered) + len(o.Replaced) }

// =============================================================================
// RESOLVER
// =============================================================================

type CoverageResolver struct {
	Shifts       ShiftStore
	Availability *AvailabilityChecker
	AuditLog     generic.AuditLog // optional
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewCoverageResolver(shifts ShiftStore, availability *AvailabilityChecker, logger *zap.Logger) *CoverageResolver {
	return &CoverageResolver{Shifts: shifts, Availability: availability, Logger: logger, Now: time.Now}
}

// FindAffectedShifts returns the shifts in period where employeeID is
// assigned, ordered by date then start time.
func (cr *CoverageResolver) FindAffectedShifts(
	ctx context.Context,
	companyID CompanyID,
	employeeID EmployeeID,
	period generic.Period,
) ([]Shift, error) {
	shifts, err := cr.Shifts.ShiftsInRange(ctx, companyID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts in %s: %w", period, err)
	}
	var affected []Shift
	for _, s := range shifts {
		if period.Contains(s.Date) && s.HasEmployee(employeeID) {
			affected = append(affected, s)
		}
	}
	sort.SliceStable(affected, func(i, j int) bool {
		if !affected[i].Date.Equal(affected[j].Date) {
			return affected[i].Date.Before(affected[j].Date)
		}
		return affected[i].Window.Start < affected[j].Window.Start
	})
	return affected, nil
}

// NewPlan opens a coverage plan for an approved sick-leave absence.
func (cr *CoverageResolver) NewPlan(ctx context.Context, absence Absence) (*CoveragePlan, error) {
	if absence.Type != AbsenceSickLeave || absence.Status != AbsenceApproved {
		return nil, fmt.Errorf("coverage requires approved sick leave, got %s %s: %w",
			absence.Status, absence.Type, generic.ErrNotApplicable)
	}
	shifts, err := cr.FindAffectedShifts(ctx, absence.CompanyID, absence.EmployeeID, absence.Period)
	if err != nil {
		return nil, err
	}
	// A partial-day sick leave only affects shifts overlapping its window.
	if absence.Window != nil {
		kept := shifts[:0]
		for _, s := range shifts {
			if s.Window.Overlaps(*absence.Window) {
				kept = append(kept, s)
			}
		}
		shifts = kept
	}
	return newCoveragePlan(absence, shifts), nil
}

// Candidates returns employees from pool who could replace on shift.
func (cr *CoverageResolver) Candidates(ctx context.Context, shift Shift, pool []EmployeeID) ([]EmployeeID, error) {
	return cr.Availability.AvailableReplacements(ctx, shift, pool)
}

// Confirm applies every resolution of a complete plan. Plans with
// unresolved shifts are rejected before anything is written. Writes are
// applied in plan order; on a store failure the outcome lists what was
// already applied.
func (cr *CoverageResolver) Confirm(ctx context.Context, actorID string, plan *CoveragePlan) (CoverageOutcome, error) {
	outcome := CoverageOutcome{Replaced: make(map[ShiftID]EmployeeID)}
	if missing := plan.Unresolved(); len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, id := range missing {
			ids[i] = string(id)
		}
		return outcome, &generic.UnresolvedCoverageError{ShiftIDs: ids}
	}

	log := loggerOrNop(cr.Logger).With(
		zap.String("absence_id", string(plan.AbsenceID)),
		zap.String("employee_id", string(plan.AbsentEmployee)),
	)

	for _, shift := range plan.Shifts {
		action := plan.Actions[shift.ID]
		switch action.Kind {
		case ActionUncover:
			if err := cr.Shifts.RemoveEmployee(ctx, shift.ID, plan.AbsentEmployee); err != nil {
				log.Error("failed to uncover shift", zap.String("shift_id", string(shift.ID)), zap.Error(err))
				return outcome, fmt.Errorf("failed to uncover shift %s: %w", shift.ID, err)
			}
			outcome.Uncovered = append(outcome.Uncovered, shift.ID)
			cr.audit(ctx, actorID, plan, shift.ID, generic.AuditShiftUncovered, nil)

		case ActionReplace:
			next, err := shift.WithReplacement(plan.AbsentEmployee, action.Replacement)
			if err != nil {
				return outcome, err
			}
			if err := cr.Shifts.SaveShift(ctx, next); err != nil {
				log.Error("failed to replace on shift", zap.String("shift_id", string(shift.ID)), zap.Error(err))
				return outcome, fmt.Errorf("failed to replace on shift %s: %w", shift.ID, err)
			}
			outcome.Replaced[shift.ID] = action.Replacement
			cr.audit(ctx, actorID, plan, shift.ID, generic.AuditShiftReplaced, map[string]any{
				"replacement_id": string(action.Replacement),
			})

		default:
			return outcome, fmt.Errorf("invalid action %q for shift %s: %w", action.Kind, shift.ID, generic.ErrNotApplicable)
		}
	}

	log.Info("coverage confirmed",
		zap.Int("uncovered", len(outcome.Uncovered)),
		zap.Int("replaced", len(outcome.Replaced)))
	return outcome, nil
}

func (cr *CoverageResolver) audit(ctx context.Context, actor string, plan *CoveragePlan, shiftID ShiftID, action generic.AuditAction, payload map[string]any) {
	if cr.AuditLog == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["absence_id"] = string(plan.AbsenceID)
	payload["employee_id"] = string(plan.AbsentEmployee)

	now := time.Now()
	if cr.Now != nil {
		now = cr.Now()
	}
	entry := generic.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: now,
		ActorID:   actor,
		Action:    action,
		CompanyID: string(plan.CompanyID),
		EntityID:  generic.EntityID(shiftID),
		Payload:   payload,
	}
	if err := cr.AuditLog.Append(ctx, entry); err != nil {
		loggerOrNop(cr.Logger).Warn("failed to append audit entry", zap.Error(err))
	}
}

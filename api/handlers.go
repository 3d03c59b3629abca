/*
handlers.go - HTTP request handlers

PURPOSE:
  Implements the scheduling API. Handlers translate HTTP requests into
  calls on the scheduling services and format responses as JSON. They
  hold no business rules of their own: availability, quota accounting,
  decisions, coverage and publication all live in the scheduling package.

HANDLER STRUCTURE:
  Each handler follows this pattern:
  1. Parse path/query parameters, bind and validate the body
  2. Load the records the operation needs from the store
  3. Call the scheduling service
  4. Map the result (or error) to an HTTP response

ERROR MAPPING:
  generic.IsNotFound     -> 404
  generic.IsConflict     -> 409 (illegal transition, unresolved coverage)
  generic.IsClientError  -> 400 (bad window, duplicate assignment, ...)
  anything else          -> 500 (store failures surface verbatim in details)

PARTIAL COMPLETION:
  An absence decision whose contract write failed is still a 200: the
  absence is committed. The body carries partial=true and the contract
  error so the manager can reconcile by hand.

SEE ALSO:
  - server.go: Route definitions
  - dto.go: Request/response types
  - scheduling/: The engine
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GiuseppeRudi/BizSync-sub002/factory"
	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

// Store is everything the API needs from persistence. Implemented by
// store/sqlite.Store and store/memory.Memory.
type Store interface {
	scheduling.ShiftStore
	scheduling.AbsenceStore
	scheduling.AbsenceSubmitter
	scheduling.ContractStore
	scheduling.WeeklyShiftStore
	generic.AuditLog

	GetShift(ctx context.Context, id scheduling.ShiftID) (*scheduling.Shift, error)
	GetAbsence(ctx context.Context, id scheduling.AbsenceID) (*scheduling.Absence, error)
	ContractsForCompany(ctx context.Context, companyID scheduling.CompanyID) ([]scheduling.Contract, error)
	SaveWeeklyShift(ctx context.Context, ws scheduling.WeeklyShift) error
	LatestWeeklyShift(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error)
	ListCompanies(ctx context.Context) ([]scheduling.CompanyID, error)
	Reset(ctx context.Context) error
}

// PublicationCache is a read-through WeeklyShiftStore that must be told
// when a week changes. Implemented by store/cache.PublicationCache.
type PublicationCache interface {
	scheduling.WeeklyShiftStore
	Invalidate(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Store        Store
	Contracts    *factory.ContractFactory
	Availability *scheduling.AvailabilityChecker
	Decisions    *scheduling.DecisionService
	Coverage     *scheduling.CoverageResolver
	Publication  *scheduling.PublicationService
	Logger       *zap.Logger
	Now          func() time.Time

	cache           PublicationCache
	validate        *validator.Validate
	currentScenario string
}

// NewHandler wires the scheduling services on top of store.
func NewHandler(store Store, publicationDay time.Weekday, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	availability := scheduling.NewAvailabilityChecker(store, store)

	decisions := scheduling.NewDecisionService(store, store, logger.Named("decision"))
	decisions.AuditLog = store

	coverage := scheduling.NewCoverageResolver(store, availability, logger.Named("coverage"))
	coverage.AuditLog = store

	return &Handler{
		Store:        store,
		Contracts:    factory.NewContractFactory(),
		Availability: availability,
		Decisions:    decisions,
		Coverage:     coverage,
		Publication:  scheduling.NewPublicationService(store, publicationDay, logger.Named("publication")),
		Logger:       logger,
		Now:          time.Now,
		validate:     newValidator(),
	}
}

// UsePublicationCache routes publication lookups through c and invalidates
// it whenever a week's status changes.
func (h *Handler) UsePublicationCache(c PublicationCache) {
	h.cache = c
	h.Publication.WeeklyShifts = c
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// CheckAvailability answers whether one employee is free for a window.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	companyID := companyParam(r)
	q := r.URL.Query()

	employeeID := q.Get("employee_id")
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	date, err := dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	window, err := generic.ParseTimeRange(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time window", err)
		return
	}

	available, err := h.Availability.IsAvailable(r.Context(), companyID, scheduling.EmployeeID(employeeID), date, window)
	if err != nil {
		writeDomainError(w, "Failed to check availability", err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityDTO{
		EmployeeID: employeeID,
		Date:       date.String(),
		StartTime:  window.Start.String(),
		EndTime:    window.End.String(),
		Available:  available,
	})
}

// GetDayStates returns the derived day state of the requested employees,
// or of every employee with a contract in the company.
func (h *Handler) GetDayStates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := companyParam(r)

	date, err := dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	var employees []scheduling.EmployeeID
	for _, id := range r.URL.Query()["employee_id"] {
		employees = append(employees, scheduling.EmployeeID(id))
	}
	if len(employees) == 0 {
		employees, err = h.companyEmployees(ctx, companyID)
		if err != nil {
			writeDomainError(w, "Failed to list employees", err)
			return
		}
	}

	states, err := h.Availability.DayStates(ctx, companyID, date, employees)
	if err != nil {
		writeDomainError(w, "Failed to compute day states", err)
		return
	}

	dtos := make([]DayStateDTO, 0, len(states))
	for _, s := range states {
		dtos = append(dtos, toDayStateDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SHIFTS
// =============================================================================

// ListShifts returns shifts in [from, to], defaulting to the current week.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	companyID := companyParam(r)
	period, err := h.rangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	shifts, err := h.Store.ShiftsInRange(r.Context(), companyID, period.Start, period.End)
	if err != nil {
		writeDomainError(w, "Failed to list shifts", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTOs(shifts))
}

// SaveShift creates or replaces a shift. Every assignee must be free: no
// other overlapping shift and no approved absence blocking the window.
func (h *Handler) SaveShift(w http.ResponseWriter, r *http.Request) {
	var req SaveShiftRequest
	if !h.bind(w, r, &req) {
		return
	}

	shift, err := shiftFromRequest(companyParam(r), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}
	if err := shift.Validate(); err != nil {
		writeDomainError(w, "Invalid shift", err)
		return
	}

	busy, err := h.Availability.AssignmentConflicts(r.Context(), shift, shift.Employees, nil)
	if err != nil {
		writeDomainError(w, "Failed to check availability", err)
		return
	}
	if len(busy) > 0 {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Employees not available for this shift",
			Code:    "unavailable",
			Details: busy,
		})
		return
	}

	if err := h.Store.SaveShift(r.Context(), shift); err != nil {
		writeDomainError(w, "Failed to save shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(shift))
}

func shiftFromRequest(companyID scheduling.CompanyID, req SaveShiftRequest) (scheduling.Shift, error) {
	date, err := generic.ParseTimePoint(req.Date)
	if err != nil {
		return scheduling.Shift{}, err
	}
	window, err := generic.ParseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return scheduling.Shift{}, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	shift := scheduling.Shift{
		ID:         scheduling.ShiftID(id),
		CompanyID:  companyID,
		Department: req.Department,
		Date:       date,
		Window:     window,
		Employees:  make([]scheduling.EmployeeID, 0, len(req.EmployeeIDs)),
	}
	for _, e := range req.EmployeeIDs {
		shift.Employees = append(shift.Employees, scheduling.EmployeeID(e))
	}
	for _, b := range req.Breaks {
		bt := scheduling.BreakType(b.Type)
		if bt == "" {
			bt = scheduling.BreakOther
		}
		shift.Breaks = append(shift.Breaks, scheduling.Break{
			Duration: time.Duration(b.Minutes) * time.Minute,
			Paid:     b.Paid,
			Type:     bt,
		})
	}
	for _, n := range req.Notes {
		nt := scheduling.NoteType(n.Type)
		if nt == "" {
			nt = scheduling.NoteGeneral
		}
		shift.Notes = append(shift.Notes, scheduling.Note{Type: nt, Text: n.Text})
	}
	return shift, nil
}

// =============================================================================
// ABSENCES
// =============================================================================

// ListAbsences returns absences overlapping [from, to], defaulting to the
// current week.
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	companyID := companyParam(r)
	period, err := h.rangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	absences, err := h.Store.AbsencesInRange(r.Context(), companyID, period.Start, period.End)
	if err != nil {
		writeDomainError(w, "Failed to list absences", err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		kept := absences[:0]
		for _, a := range absences {
			if string(a.Status) == status {
				kept = append(kept, a)
			}
		}
		absences = kept
	}
	writeJSON(w, http.StatusOK, toAbsenceDTOs(absences))
}

// SubmitAbsence stores a new pending absence and, when the employee has a
// contract, reports what approving it would do to the quota.
func (h *Handler) SubmitAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := companyParam(r)

	var req SubmitAbsenceRequest
	if !h.bind(w, r, &req) {
		return
	}

	start, err := generic.ParseTimePoint(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := generic.ParseTimePoint(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	var window *generic.TimeRange
	if req.StartTime != "" {
		tr, err := generic.ParseTimeRange(req.StartTime, req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid time window", err)
			return
		}
		window = &tr
	}

	absence, err := scheduling.NewAbsenceRequest(
		"",
		companyID,
		scheduling.EmployeeID(req.EmployeeID),
		scheduling.AbsenceType(req.Type),
		generic.Period{Start: start, End: end},
		window,
		h.now(),
	)
	if err != nil {
		writeDomainError(w, "Invalid absence", err)
		return
	}

	saved, err := h.Decisions.Submit(ctx, absence).Unwrap()
	if err != nil {
		writeDomainError(w, "Failed to submit absence", err)
		return
	}

	resp := SubmitAbsenceResponse{Absence: toAbsenceDTO(saved)}
	contract, err := h.Store.ContractFor(ctx, saved.EmployeeID)
	if err != nil {
		// The absence is stored; the projection is a convenience.
		h.logger().Warn("quota check skipped", zap.String("employee_id", req.EmployeeID), zap.Error(err))
	} else if contract != nil {
		if p, ok := scheduling.CheckRequest(*contract, saved); ok {
			resp.QuotaCheck = toProjectionDTO(p)
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListEmployeeAbsences returns one employee's absences across companies,
// optionally filtered by ?status=.
func (h *Handler) ListEmployeeAbsences(w http.ResponseWriter, r *http.Request) {
	employeeID := scheduling.EmployeeID(chi.URLParam(r, "id"))
	status := scheduling.AbsenceStatus(r.URL.Query().Get("status"))

	res := h.Decisions.History(r.Context(), employeeID, status)
	switch res.State {
	case generic.ResourceSuccess:
		writeJSON(w, http.StatusOK, toAbsenceDTOs(res.Data))
	case generic.ResourceEmpty:
		writeJSON(w, http.StatusOK, []AbsenceDTO{})
	default:
		writeDomainError(w, "Failed to list absences", res.Err)
	}
}

// DecideAbsence approves or rejects a pending absence.
func (h *Handler) DecideAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DecisionRequest
	if !h.bind(w, r, &req) {
		return
	}

	absence, ok := h.loadAbsence(w, r)
	if !ok {
		return
	}
	contract, err := h.Store.ContractFor(ctx, absence.EmployeeID)
	if err != nil {
		writeDomainError(w, "Failed to load contract", err)
		return
	}

	res := h.Decisions.Decide(ctx, req.ApproverID, *absence, *req.Approve, req.Comment, contract)
	result, err := res.Unwrap()
	if err != nil {
		writeDomainError(w, "Failed to decide absence", err)
		return
	}

	dto := DecisionDTO{
		Absence:               toAbsenceDTO(result.Absence),
		Approved:              result.Approved,
		ContractUpdateSuccess: result.ContractUpdateSuccess,
		ContractError:         result.ContractError,
		Partial:               result.PartiallyCompleted(),
		CoverageRequired:      result.CoverageRequired,
	}
	if result.Contract != nil {
		c := toContractDTO(*result.Contract)
		dto.Contract = &c
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// COVERAGE
// =============================================================================

// GetCoveragePlan lists the shifts an approved sick leave leaves open,
// each with the employees who could step in.
func (h *Handler) GetCoveragePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	absence, ok := h.loadAbsence(w, r)
	if !ok {
		return
	}
	plan, err := h.Coverage.NewPlan(ctx, *absence)
	if err != nil {
		writeDomainError(w, "Cannot open coverage plan", err)
		return
	}
	pool, err := h.companyEmployees(ctx, absence.CompanyID)
	if err != nil {
		writeDomainError(w, "Failed to list employees", err)
		return
	}

	dto := CoveragePlanDTO{
		AbsenceID:      string(plan.AbsenceID),
		AbsentEmployee: string(plan.AbsentEmployee),
		Shifts:         make([]AffectedShiftDTO, 0, len(plan.Shifts)),
	}
	for _, s := range plan.Shifts {
		candidates, err := h.Coverage.Candidates(ctx, s, pool)
		if err != nil {
			writeDomainError(w, "Failed to find replacements", err)
			return
		}
		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, string(c))
		}
		dto.Shifts = append(dto.Shifts, AffectedShiftDTO{Shift: toShiftDTO(s), Candidates: ids})
	}
	writeJSON(w, http.StatusOK, dto)
}

// ConfirmCoverage applies one resolution per affected shift. The plan is
// rebuilt from the store, so a shift that stopped being affected is
// rejected rather than silently applied.
func (h *Handler) ConfirmCoverage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ConfirmCoverageRequest
	if !h.bind(w, r, &req) {
		return
	}

	absence, ok := h.loadAbsence(w, r)
	if !ok {
		return
	}
	plan, err := h.Coverage.NewPlan(ctx, *absence)
	if err != nil {
		writeDomainError(w, "Cannot open coverage plan", err)
		return
	}

	// Replacements accepted so far in this request, as they will be stored.
	var accepted []scheduling.Shift
	for _, a := range req.Actions {
		action := scheduling.Uncover()
		if scheduling.ShiftActionKind(a.Kind) == scheduling.ActionReplace {
			action = scheduling.Replace(scheduling.EmployeeID(a.ReplacementID))
		}
		if err := plan.Resolve(scheduling.ShiftID(a.ShiftID), action); err != nil {
			writeDomainError(w, "Invalid coverage action", err)
			return
		}
		if action.Kind == scheduling.ActionReplace {
			replaced, err := h.checkReplacement(ctx, plan, scheduling.ShiftID(a.ShiftID), action.Replacement, accepted)
			if err != nil {
				writeDomainError(w, "Invalid coverage action", err)
				return
			}
			accepted = append(accepted, replaced)
		}
	}

	outcome, err := h.Coverage.Confirm(ctx, req.ActorID, plan)
	if err != nil {
		var unresolved *generic.UnresolvedCoverageError
		if errors.As(err, &unresolved) {
			writeJSON(w, http.StatusConflict, ErrorResponse{
				Error:   "Every affected shift needs a resolution",
				Code:    "unresolved_coverage",
				Details: unresolved.ShiftIDs,
			})
			return
		}
		if outcome.Applied() > 0 {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error:   "Coverage partially applied",
				Code:    "partial_coverage",
				Details: map[string]any{"applied": toCoverageOutcomeDTO(outcome), "error": err.Error()},
			})
			return
		}
		writeDomainError(w, "Failed to confirm coverage", err)
		return
	}
	writeJSON(w, http.StatusOK, toCoverageOutcomeDTO(outcome))
}

// checkReplacement rejects a replacement who is busy or absent during the
// shift, counting replacements already accepted in the same request. It
// returns the shift as it will look once the replacement is applied.
func (h *Handler) checkReplacement(
	ctx context.Context,
	plan *scheduling.CoveragePlan,
	shiftID scheduling.ShiftID,
	candidate scheduling.EmployeeID,
	accepted []scheduling.Shift,
) (scheduling.Shift, error) {
	for _, s := range plan.Shifts {
		if s.ID != shiftID {
			continue
		}
		busy, err := h.Availability.AssignmentConflicts(ctx, s, []scheduling.EmployeeID{candidate}, accepted)
		if err != nil {
			return scheduling.Shift{}, err
		}
		if len(busy) > 0 {
			return scheduling.Shift{}, fmt.Errorf("employee %s for shift %s: %w", candidate, shiftID, generic.ErrEmployeeUnavailable)
		}
		return s.WithReplacement(plan.AbsentEmployee, candidate)
	}
	return scheduling.Shift{}, fmt.Errorf("shift %s: %w", shiftID, generic.ErrNotApplicable)
}

// =============================================================================
// CONTRACTS & QUOTAS
// =============================================================================

// GetQuota returns the quota summary of an employee's contract.
func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	employeeID := scheduling.EmployeeID(chi.URLParam(r, "id"))

	contract, err := h.Store.ContractFor(r.Context(), employeeID)
	if err != nil {
		writeDomainError(w, "Failed to load contract", err)
		return
	}
	if contract == nil {
		writeError(w, http.StatusNotFound, "Employee has no contract", nil)
		return
	}
	writeJSON(w, http.StatusOK, toQuotaSummaryDTO(*contract))
}

// ListContracts returns the contracts of a company.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Store.ContractsForCompany(r.Context(), companyParam(r))
	if err != nil {
		writeDomainError(w, "Failed to list contracts", err)
		return
	}
	dtos := make([]ContractDTO, 0, len(contracts))
	for _, c := range contracts {
		dtos = append(dtos, toContractDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveContract assigns limits to an employee from a CCNL preset or an
// inline template. Usage already recorded on an existing contract is kept.
func (h *Handler) SaveContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := companyParam(r)

	var req SaveContractRequest
	if !h.bind(w, r, &req) {
		return
	}
	employeeID := scheduling.EmployeeID(req.EmployeeID)

	var contract scheduling.Contract
	if req.Template != nil {
		if err := h.Contracts.Validate(*req.Template); err != nil {
			writeDomainError(w, "Invalid contract template", err)
			return
		}
		contract = h.Contracts.NewContract(*req.Template, companyID, employeeID)
	} else {
		var err error
		contract, err = h.Contracts.FromPreset(req.Preset, companyID, employeeID)
		if err != nil {
			writeDomainError(w, "Unknown CCNL preset", err)
			return
		}
	}

	existing, err := h.Store.ContractFor(ctx, employeeID)
	if err != nil {
		writeDomainError(w, "Failed to load contract", err)
		return
	}
	if existing != nil {
		contract.VacationDaysUsed = existing.VacationDaysUsed
		contract.ROLHoursUsed = existing.ROLHoursUsed
		contract.SickDaysUsed = existing.SickDaysUsed
	}

	if err := h.Store.UpdateContract(ctx, contract); err != nil {
		writeDomainError(w, "Failed to save contract", err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractDTO(contract))
}

// ListPresets returns the CCNL presets contracts can be built from.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	out := make([]factory.ContractTemplate, 0, len(factory.Presets))
	for _, name := range h.Contracts.PresetNames() {
		for _, p := range factory.Presets {
			if p.CCNL == name {
				out = append(out, p)
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// PUBLICATION
// =============================================================================

// GetPublicationInfo returns the manager banner data. It never fails: a
// lookup error reads as "not published".
func (h *Handler) GetPublicationInfo(w http.ResponseWriter, r *http.Request) {
	info := h.Publication.GetPublicationInfo(r.Context(), companyParam(r))
	writeJSON(w, http.StatusOK, toPublicationInfoDTO(info))
}

// GetWeekStatus returns the current state of one week.
func (h *Handler) GetWeekStatus(w http.ResponseWriter, r *http.Request) {
	companyID := companyParam(r)
	weekStart, ok := weekParam(w, r)
	if !ok {
		return
	}
	latest, err := h.Store.LatestWeeklyShift(r.Context(), companyID, weekStart)
	if err != nil {
		writeDomainError(w, "Failed to load week", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeeklyShiftDTO(companyID, weekStart, latest))
}

// SetWeekStatus appends a DRAFT or PUBLISHED record for a week, if the
// state machine allows the move from the week's current state.
func (h *Handler) SetWeekStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := companyParam(r)

	weekStart, ok := weekParam(w, r)
	if !ok {
		return
	}
	var req WeekStatusRequest
	if !h.bind(w, r, &req) {
		return
	}
	to := scheduling.PublicationStatus(req.Status)

	latest, err := h.Store.LatestWeeklyShift(ctx, companyID, weekStart)
	if err != nil {
		writeDomainError(w, "Failed to load week", err)
		return
	}
	from := scheduling.StatusOf(latest)
	if err := scheduling.CheckTransition(from, to); err != nil {
		writeDomainError(w, "Status change not allowed", err)
		return
	}

	record := scheduling.WeeklyShift{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		WeekStart: weekStart,
		Status:    to,
		CreatedAt: h.now(),
	}
	if err := h.Store.SaveWeeklyShift(ctx, record); err != nil {
		writeDomainError(w, "Failed to save week status", err)
		return
	}

	if err := h.Store.Append(ctx, generic.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: record.CreatedAt,
		ActorID:   req.ActorID,
		Action:    generic.AuditWeekStatus,
		CompanyID: string(companyID),
		EntityID:  generic.EntityID(record.ID),
		Payload:   map[string]any{"week_start": weekStart.String(), "from": string(from), "to": string(to)},
	}); err != nil {
		h.logger().Warn("failed to append audit entry", zap.Error(err))
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, companyID, weekStart); err != nil {
			h.logger().Warn("failed to invalidate publication cache", zap.Error(err))
		}
	}

	h.logger().Info("week status changed",
		zap.String("company_id", string(companyID)),
		zap.String("week_start", weekStart.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	writeJSON(w, http.StatusCreated, toWeeklyShiftDTO(companyID, weekStart, &record))
}

// =============================================================================
// AUDIT
// =============================================================================

// ListAudit returns a company's audit trail, optionally narrowed to one
// entity (entity_id) or actor (actor_id).
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	company := string(companyParam(r))
	filter := generic.AuditFilter{CompanyID: &company}
	q := r.URL.Query()
	if v := q.Get("entity_id"); v != "" {
		id := generic.EntityID(v)
		filter.EntityID = &id
	}
	if v := q.Get("actor_id"); v != "" {
		filter.ActorID = &v
	}
	for _, a := range q["action"] {
		filter.Actions = append(filter.Actions, generic.AuditAction(a))
	}

	entries, err := h.Store.Query(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "Failed to query audit log", err)
		return
	}
	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toAuditEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase clears all data. Development only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeDomainError(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadAbsence(w http.ResponseWriter, r *http.Request) (*scheduling.Absence, bool) {
	id := scheduling.AbsenceID(chi.URLParam(r, "id"))
	absence, err := h.Store.GetAbsence(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load absence", err)
		return nil, false
	}
	if absence == nil {
		writeError(w, http.StatusNotFound, "Absence not found", nil)
		return nil, false
	}
	return absence, true
}

// companyEmployees is the replacement pool: every employee with a contract.
func (h *Handler) companyEmployees(ctx context.Context, companyID scheduling.CompanyID) ([]scheduling.EmployeeID, error) {
	contracts, err := h.Store.ContractsForCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	ids := make([]scheduling.EmployeeID, 0, len(contracts))
	for _, c := range contracts {
		ids = append(ids, c.EmployeeID)
	}
	return ids, nil
}

// rangeParams reads from/to, defaulting to the current Monday-Sunday week.
func (h *Handler) rangeParams(r *http.Request) (generic.Period, error) {
	week := generic.Week(generic.DateOf(h.now()))
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		from, err := generic.ParseTimePoint(v)
		if err != nil {
			return generic.Period{}, err
		}
		week.Start = from
	}
	if v := q.Get("to"); v != "" {
		to, err := generic.ParseTimePoint(v)
		if err != nil {
			return generic.Period{}, err
		}
		week.End = to
	}
	return generic.NewPeriod(week.Start, week.End)
}

// bind decodes and validates a JSON body, writing the 400 itself.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func companyParam(r *http.Request) scheduling.CompanyID {
	return scheduling.CompanyID(chi.URLParam(r, "companyID"))
}

func dateParam(r *http.Request, name string) (generic.TimePoint, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return generic.TimePoint{}, fmt.Errorf("%s is required", name)
	}
	return generic.ParseTimePoint(v)
}

// weekParam reads {weekStart}, which must be a Monday.
func weekParam(w http.ResponseWriter, r *http.Request) (generic.TimePoint, bool) {
	weekStart, err := generic.ParseTimePoint(chi.URLParam(r, "weekStart"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week start", err)
		return generic.TimePoint{}, false
	}
	if weekStart.Weekday() != time.Monday {
		writeError(w, http.StatusBadRequest, "Week start must be a Monday", nil)
		return generic.TimePoint{}, false
	}
	return weekStart, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's category.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case generic.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case generic.IsConflict(err):
		status, code = http.StatusConflict, "conflict"
	case generic.IsClientError(err):
		status, code = http.StatusBadRequest, "invalid"
	}
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: err.Error()})
}

// writeValidationError reports every failing field as field -> rule.
func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		if e.Tag() == "required" {
			fields[e.Field()] = "is required"
			continue
		}
		rule := e.Tag()
		if e.Param() != "" {
			rule += "=" + e.Param()
		}
		fields[e.Field()] = "failed " + rule
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Validation failed",
		Code:    "validation_failed",
		Details: fields,
	})
}

/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates one company with
	contracts, a week of shifts and the absences that show off a feature.
	Dates are relative to today, so a scenario always lands on the current
	and next week.

AVAILABLE SCENARIOS:

	retail-week:     Shop with two departments, a partial-day ROL, a pending vacation
	sick-leave:      Bar with an approved sick leave waiting for coverage
	quota-overrun:   Workshop employee asking for more vacation than is left
	publication-due: Hotel with next week's roster still in DRAFT

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create contracts from CCNL presets via factory
 3. Create shifts
 4. Submit absences, and decide them through the decision workflow so
    contracts are updated the same way the API would

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "sick-leave"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - factory/contract.go: CCNL presets
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "retail-week",
		Name:        "Retail Week",
		Description: "Shop with two departments, an approved partial-day ROL and a pending vacation",
	},
	{
		ID:          "sick-leave",
		Name:        "Sick Leave Coverage",
		Description: "Approved sick leave whose shifts still need to be uncovered or reassigned",
	},
	{
		ID:          "quota-overrun",
		Name:        "Quota Overrun",
		Description: "Pending vacation that would exceed the CCNL vacation limit",
	},
	{
		ID:          "publication-due",
		Name:        "Publication Due",
		Description: "Next week's roster saved as DRAFT, not yet published",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.bind(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeDomainError(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "retail-week":
		err = h.loadRetailWeekScenario(ctx)
	case "sick-leave":
		err = h.loadSickLeaveScenario(ctx)
	case "quota-overrun":
		err = h.loadQuotaOverrunScenario(ctx)
	case "publication-due":
		err = h.loadPublicationDueScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadRetailWeekScenario: "negozio-centro", CCNL commercio.
//
//	Cassa      09:00-13:00 anna, 14:00-19:00 bruno, Mon-Sat
//	Magazzino  08:00-12:00 carla, Mon/Wed/Fri
//	anna:  approved ROL Thursday 14:00-18:00 (4h)
//	dario: pending vacation Mon-Wed next week
func (h *Handler) loadRetailWeekScenario(ctx context.Context) error {
	const company = "negozio-centro"
	monday := h.thisMonday()

	if err := h.seedContracts(ctx, company, "commercio", "anna", "bruno", "carla", "dario"); err != nil {
		return err
	}
	for d := 0; d < 6; d++ {
		day := monday.AddDays(d)
		if err := h.seedShift(ctx, company, "Cassa", day, "09:00", "13:00", "anna"); err != nil {
			return err
		}
		if err := h.seedShift(ctx, company, "Cassa", day, "14:00", "19:00", "bruno"); err != nil {
			return err
		}
		if d%2 == 0 {
			if err := h.seedShift(ctx, company, "Magazzino", day, "08:00", "12:00", "carla"); err != nil {
				return err
			}
		}
	}

	thursday := monday.AddDays(3)
	rol := generic.NewTimeRange(generic.NewClockTime(14, 0), generic.NewClockTime(18, 0))
	if _, err := h.seedAbsence(ctx, company, "anna", scheduling.AbsenceROL, generic.SingleDay(thursday), &rol, true); err != nil {
		return err
	}

	next := monday.AddDays(7)
	if _, err := h.seedAbsence(ctx, company, "dario", scheduling.AbsenceVacation,
		generic.Period{Start: next, End: next.AddDays(2)}, nil, false); err != nil {
		return err
	}
	return h.seedWeekStatus(ctx, company, monday, scheduling.StatusPublished)
}

// loadSickLeaveScenario: "bar-stazione", CCNL turismo.
//
//	Sala    07:00-15:00 marco+giulia, 15:00-23:00 luca, every day
//	Cucina  10:00-16:00 sara, every day
//	marco:  approved sick leave Tue-Thu, coverage not yet confirmed
func (h *Handler) loadSickLeaveScenario(ctx context.Context) error {
	const company = "bar-stazione"
	monday := h.thisMonday()

	if err := h.seedContracts(ctx, company, "turismo", "marco", "giulia", "luca", "sara", "paolo"); err != nil {
		return err
	}
	for d := 0; d < 7; d++ {
		day := monday.AddDays(d)
		if err := h.seedShift(ctx, company, "Sala", day, "07:00", "15:00", "marco", "giulia"); err != nil {
			return err
		}
		if err := h.seedShift(ctx, company, "Sala", day, "15:00", "23:00", "luca"); err != nil {
			return err
		}
		if err := h.seedShift(ctx, company, "Cucina", day, "10:00", "16:00", "sara"); err != nil {
			return err
		}
	}

	_, err := h.seedAbsence(ctx, company, "marco", scheduling.AbsenceSickLeave,
		generic.Period{Start: monday.AddDays(1), End: monday.AddDays(3)}, nil, true)
	if err != nil {
		return err
	}
	return h.seedWeekStatus(ctx, company, monday, scheduling.StatusPublished)
}

// loadQuotaOverrunScenario: "officina-nord", CCNL metalmeccanico (20 days).
// elena has used 18 days and asks for 3 more.
func (h *Handler) loadQuotaOverrunScenario(ctx context.Context) error {
	const company = "officina-nord"
	monday := h.thisMonday()

	if err := h.seedContracts(ctx, company, "metalmeccanico", "elena", "federico"); err != nil {
		return err
	}
	contract, err := h.Store.ContractFor(ctx, "elena")
	if err != nil {
		return err
	}
	contract.VacationDaysUsed = generic.NewAmount(18, generic.UnitDays)
	if err := h.Store.UpdateContract(ctx, *contract); err != nil {
		return err
	}

	for d := 0; d < 5; d++ {
		day := monday.AddDays(d)
		if err := h.seedShift(ctx, company, "Produzione", day, "06:00", "14:00", "elena"); err != nil {
			return err
		}
		if err := h.seedShift(ctx, company, "Produzione", day, "14:00", "22:00", "federico"); err != nil {
			return err
		}
	}

	next := monday.AddDays(7)
	_, err = h.seedAbsence(ctx, company, "elena", scheduling.AbsenceVacation,
		generic.Period{Start: next, End: next.AddDays(2)}, nil, false)
	return err
}

// loadPublicationDueScenario: "hotel-lago", CCNL turismo. The reference
// week has shifts and a DRAFT record; the manager banner shows it unpublished.
func (h *Handler) loadPublicationDueScenario(ctx context.Context) error {
	const company = "hotel-lago"
	weekStart := generic.ReferenceWeekStart(generic.DateOf(h.now()), h.Publication.PublicationDay)

	if err := h.seedContracts(ctx, company, "turismo", "irene", "nicola", "olga"); err != nil {
		return err
	}
	for d := 0; d < 7; d++ {
		day := weekStart.AddDays(d)
		if err := h.seedShift(ctx, company, "Reception", day, "07:00", "15:00", "irene"); err != nil {
			return err
		}
		if err := h.seedShift(ctx, company, "Reception", day, "15:00", "23:00", "nicola"); err != nil {
			return err
		}
		if err := h.seedShift(ctx, company, "Piani", day, "09:00", "13:00", "olga"); err != nil {
			return err
		}
	}
	return h.seedWeekStatus(ctx, company, weekStart, scheduling.StatusDraft)
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) thisMonday() generic.TimePoint {
	monday, _ := generic.WeekBounds(generic.DateOf(h.now()))
	return monday
}

func (h *Handler) seedContracts(ctx context.Context, company scheduling.CompanyID, preset string, employees ...scheduling.EmployeeID) error {
	for _, e := range employees {
		c, err := h.Contracts.FromPreset(preset, company, e)
		if err != nil {
			return err
		}
		if err := h.Store.UpdateContract(ctx, c); err != nil {
			return fmt.Errorf("failed to save contract for %s: %w", e, err)
		}
	}
	return nil
}

func (h *Handler) seedShift(ctx context.Context, company scheduling.CompanyID, department string, date generic.TimePoint, start, end string, employees ...scheduling.EmployeeID) error {
	window, err := generic.ParseTimeRange(start, end)
	if err != nil {
		return err
	}
	shift := scheduling.Shift{
		ID:         scheduling.ShiftID(uuid.NewString()),
		CompanyID:  company,
		Department: department,
		Date:       date,
		Window:     window,
		Employees:  employees,
	}
	if window.Duration().Hours() >= 6 {
		shift.Breaks = []scheduling.Break{{Duration: 30 * time.Minute, Paid: false, Type: scheduling.BreakMeal}}
	}
	return h.Store.SaveShift(ctx, shift)
}

// seedAbsence submits an absence and, when approve is set, approves it
// through the decision workflow.
func (h *Handler) seedAbsence(
	ctx context.Context,
	company scheduling.CompanyID,
	employee scheduling.EmployeeID,
	absenceType scheduling.AbsenceType,
	period generic.Period,
	window *generic.TimeRange,
	approve bool,
) (scheduling.Absence, error) {
	absence, err := scheduling.NewAbsenceRequest("", company, employee, absenceType, period, window, h.now())
	if err != nil {
		return scheduling.Absence{}, err
	}
	absence, err = h.Decisions.Submit(ctx, absence).Unwrap()
	if err != nil || !approve {
		return absence, err
	}

	contract, err := h.Store.ContractFor(ctx, employee)
	if err != nil {
		return absence, err
	}
	result, err := h.Decisions.Decide(ctx, "manager", absence, true, "seeded", contract).Unwrap()
	if err != nil {
		return absence, err
	}
	if result.PartiallyCompleted() {
		return result.Absence, fmt.Errorf("contract update failed: %s", result.ContractError)
	}
	return result.Absence, nil
}

func (h *Handler) seedWeekStatus(ctx context.Context, company scheduling.CompanyID, weekStart generic.TimePoint, status scheduling.PublicationStatus) error {
	return h.Store.SaveWeeklyShift(ctx, scheduling.WeeklyShift{
		ID:        uuid.NewString(),
		CompanyID: company,
		WeekStart: weekStart,
		Status:    status,
		CreatedAt: h.now(),
	})
}

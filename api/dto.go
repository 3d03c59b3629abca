/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the scheduling model from the external API contract: dates travel as
  YYYY-MM-DD, clock times as HH:MM, quantities as decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Shifts:       ShiftDTO, SaveShiftRequest
  Absences:     AbsenceDTO, SubmitAbsenceRequest, DecisionRequest, DecisionDTO
  Coverage:     CoveragePlanDTO, ConfirmCoverageRequest, CoverageOutcomeDTO
  Contracts:    ContractDTO, QuotaDTO, SaveContractRequest
  Publication:  PublicationInfoDTO, WeekStatusRequest, WeeklyShiftDTO
  Scenarios:    ScenarioDTO

VALIDATION:
  Request types carry validator/v10 tags, checked by Handler.bind before
  any domain code runs. Domain rules (windows, transitions) stay in the
  scheduling package.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/contract.go: ContractTemplate
*/
package api

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/GiuseppeRudi/BizSync-sub002/factory"
	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

// =============================================================================
// SHIFTS
// =============================================================================

type BreakDTO struct {
	Minutes int    `json:"minutes" validate:"gt=0,lte=480"`
	Paid    bool   `json:"paid"`
	Type    string `json:"type" validate:"omitempty,oneof=meal rest other"`
}

type NoteDTO struct {
	Type string `json:"type" validate:"omitempty,oneof=general task coverage"`
	Text string `json:"text" validate:"required"`
}

// ShiftDTO represents a shift in API responses.
type ShiftDTO struct {
	ID              string     `json:"id"`
	CompanyID       string     `json:"company_id"`
	Department      string     `json:"department"`
	DepartmentColor string     `json:"department_color"`
	Date            string     `json:"date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	EmployeeIDs     []string   `json:"employee_ids"`
	Breaks          []BreakDTO `json:"breaks,omitempty"`
	Notes           []NoteDTO  `json:"notes,omitempty"`
}

// SaveShiftRequest creates or replaces a shift. A missing ID creates one.
type SaveShiftRequest struct {
	ID          string     `json:"id"`
	Department  string     `json:"department" validate:"required"`
	Date        string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string     `json:"start_time" validate:"required"`
	EndTime     string     `json:"end_time" validate:"required"`
	EmployeeIDs []string   `json:"employee_ids" validate:"dive,required"`
	Breaks      []BreakDTO `json:"breaks" validate:"dive"`
	Notes       []NoteDTO  `json:"notes" validate:"dive"`
}

func toShiftDTO(s scheduling.Shift) ShiftDTO {
	dto := ShiftDTO{
		ID:              string(s.ID),
		CompanyID:       string(s.CompanyID),
		Department:      s.Department,
		DepartmentColor: DepartmentColor(s.Department),
		Date:            s.Date.String(),
		StartTime:       s.Window.Start.String(),
		EndTime:         s.Window.End.String(),
		EmployeeIDs:     make([]string, len(s.Employees)),
	}
	for i, e := range s.Employees {
		dto.EmployeeIDs[i] = string(e)
	}
	for _, b := range s.Breaks {
		dto.Breaks = append(dto.Breaks, BreakDTO{
			Minutes: int(b.Duration / time.Minute),
			Paid:    b.Paid,
			Type:    string(b.Type),
		})
	}
	for _, n := range s.Notes {
		dto.Notes = append(dto.Notes, NoteDTO{Type: string(n.Type), Text: n.Text})
	}
	return dto
}

func toShiftDTOs(shifts []scheduling.Shift) []ShiftDTO {
	out := make([]ShiftDTO, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, toShiftDTO(s))
	}
	return out
}

// departmentPalette is the fixed set of colors departments are mapped onto.
var departmentPalette = []string{
	"#4472C4", "#ED7D31", "#A5A5A5", "#FFC000", "#5B9BD5",
	"#70AD47", "#264478", "#9E480E", "#636363", "#997300",
}

// DepartmentColor picks a stable palette color for a department name
// (FNV-1a), so the same department renders the same color everywhere.
func DepartmentColor(department string) string {
	h := fnv.New32a()
	h.Write([]byte(department))
	return departmentPalette[h.Sum32()%uint32(len(departmentPalette))]
}

// =============================================================================
// AVAILABILITY
// =============================================================================

type AvailabilityDTO struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Available  bool   `json:"available"`
}

type DayStateDTO struct {
	EmployeeID     string   `json:"employee_id"`
	Date           string   `json:"date"`
	FullyAbsent    bool     `json:"fully_absent"`
	AbsenceType    string   `json:"absence_type,omitempty"`
	AssignedShifts []string `json:"assigned_shifts"`
	PartialAbsence *string  `json:"partial_absence,omitempty"`
}

func toDayStateDTO(s scheduling.EmployeeDayState) DayStateDTO {
	dto := DayStateDTO{
		EmployeeID:     string(s.EmployeeID),
		Date:           s.Date.String(),
		FullyAbsent:    s.FullyAbsent,
		AbsenceType:    string(s.AbsenceType),
		AssignedShifts: make([]string, len(s.AssignedShifts)),
	}
	for i, id := range s.AssignedShifts {
		dto.AssignedShifts[i] = string(id)
	}
	if s.PartialAbsence != nil {
		w := s.PartialAbsence.String()
		dto.PartialAbsence = &w
	}
	return dto
}

// =============================================================================
// ABSENCES
// =============================================================================

// AbsenceDTO represents an absence in API responses.
type AbsenceDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	CompanyID    string `json:"company_id"`
	Type         string `json:"type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Status       string `json:"status"`
	TotalDays    string `json:"total_days"`
	TotalHours   string `json:"total_hours"`
	ApproverID   string `json:"approver_id,omitempty"`
	ApprovalDate string `json:"approval_date,omitempty"`
	Comment      string `json:"comment,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// SubmitAbsenceRequest creates a pending absence. Both times set means a
// partial-day absence on each day of the period.
type SubmitAbsenceRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=VACATION ROL SICK_LEAVE PERSONAL_LEAVE UNPAID_LEAVE STRIKE"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	StartTime  string `json:"start_time" validate:"required_with=EndTime"`
	EndTime    string `json:"end_time" validate:"required_with=StartTime"`
}

// SubmitAbsenceResponse returns the stored absence with its quota
// projection, when the employee has a contract and the type is tracked.
type SubmitAbsenceResponse struct {
	Absence    AbsenceDTO     `json:"absence"`
	QuotaCheck *ProjectionDTO `json:"quota_check,omitempty"`
}

type DecisionRequest struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Approve    *bool  `json:"approve" validate:"required"`
	Comment    string `json:"comment" validate:"max=500"`
}

// DecisionDTO is the result of an absence decision. Partial is set when
// the absence was committed but the contract write failed.
type DecisionDTO struct {
	Absence               AbsenceDTO   `json:"absence"`
	Contract              *ContractDTO `json:"contract,omitempty"`
	Approved              bool         `json:"approved"`
	ContractUpdateSuccess bool         `json:"contract_update_success"`
	ContractError         string       `json:"contract_error,omitempty"`
	Partial               bool         `json:"partial"`
	CoverageRequired      bool         `json:"coverage_required"`
}

func toAbsenceDTO(a scheduling.Absence) AbsenceDTO {
	dto := AbsenceDTO{
		ID:         string(a.ID),
		EmployeeID: string(a.EmployeeID),
		CompanyID:  string(a.CompanyID),
		Type:       string(a.Type),
		StartDate:  a.Period.Start.String(),
		EndDate:    a.Period.End.String(),
		Status:     string(a.Status),
		TotalDays:  a.TotalDays.Value.String(),
		TotalHours: a.TotalHours.Value.String(),
		ApproverID: a.ApproverID,
		Comment:    a.Comment,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	if a.Window != nil {
		dto.StartTime = a.Window.Start.String()
		dto.EndTime = a.Window.End.String()
	}
	if a.ApprovalDate != nil {
		dto.ApprovalDate = a.ApprovalDate.String()
	}
	return dto
}

func toAbsenceDTOs(as []scheduling.Absence) []AbsenceDTO {
	out := make([]AbsenceDTO, 0, len(as))
	for _, a := range as {
		out = append(out, toAbsenceDTO(a))
	}
	return out
}

// =============================================================================
// COVERAGE
// =============================================================================

type AffectedShiftDTO struct {
	Shift      ShiftDTO `json:"shift"`
	Candidates []string `json:"candidates"`
}

type CoveragePlanDTO struct {
	AbsenceID      string             `json:"absence_id"`
	AbsentEmployee string             `json:"absent_employee"`
	Shifts         []AffectedShiftDTO `json:"shifts"`
}

type CoverageActionDTO struct {
	ShiftID       string `json:"shift_id" validate:"required"`
	Kind          string `json:"kind" validate:"required,oneof=uncover replace"`
	ReplacementID string `json:"replacement_id" validate:"required_if=Kind replace,excluded_if=Kind uncover"`
}

// ConfirmCoverageRequest resolves every affected shift in one call.
type ConfirmCoverageRequest struct {
	ActorID string              `json:"actor_id" validate:"required"`
	Actions []CoverageActionDTO `json:"actions" validate:"dive"`
}

type CoverageOutcomeDTO struct {
	Uncovered []string          `json:"uncovered"`
	Replaced  map[string]string `json:"replaced"`
}

func toCoverageOutcomeDTO(o scheduling.CoverageOutcome) CoverageOutcomeDTO {
	dto := CoverageOutcomeDTO{
		Uncovered: make([]string, 0, len(o.Uncovered)),
		Replaced:  make(map[string]string, len(o.Replaced)),
	}
	for _, id := range o.Uncovered {
		dto.Uncovered = append(dto.Uncovered, string(id))
	}
	for id, emp := range o.Replaced {
		dto.Replaced[string(id)] = string(emp)
	}
	return dto
}

// =============================================================================
// CONTRACTS & QUOTAS
// =============================================================================

type ContractDTO struct {
	EmployeeID        string `json:"employee_id"`
	CompanyID         string `json:"company_id"`
	CCNL              string `json:"ccnl"`
	VacationDaysLimit string `json:"vacation_days_limit"`
	ROLHoursLimit     string `json:"rol_hours_limit"`
	PaidSickDaysLimit string `json:"paid_sick_days_limit"`
	VacationDaysUsed  string `json:"vacation_days_used"`
	ROLHoursUsed      string `json:"rol_hours_used"`
	SickDaysUsed      string `json:"sick_days_used"`
}

// SaveContractRequest assigns a contract from a preset name or an inline
// template. Exactly one must be given.
type SaveContractRequest struct {
	EmployeeID string                    `json:"employee_id" validate:"required"`
	Preset     string                    `json:"preset" validate:"required_without=Template,excluded_with=Template"`
	Template   *factory.ContractTemplate `json:"template"`
}

func toContractDTO(c scheduling.Contract) ContractDTO {
	return ContractDTO{
		EmployeeID:        string(c.EmployeeID),
		CompanyID:         string(c.CompanyID),
		CCNL:              c.CCNL,
		VacationDaysLimit: c.VacationDaysLimit.Value.String(),
		ROLHoursLimit:     c.ROLHoursLimit.Value.String(),
		PaidSickDaysLimit: c.PaidSickDaysLimit.Value.String(),
		VacationDaysUsed:  c.VacationDaysUsed.Value.String(),
		ROLHoursUsed:      c.ROLHoursUsed.Value.String(),
		SickDaysUsed:      c.SickDaysUsed.Value.String(),
	}
}

// QuotaDTO shows one quota the way the quota screen displays it.
type QuotaDTO struct {
	Unit      string `json:"unit"`
	Limit     string `json:"limit"`
	Used      string `json:"used"`
	Remaining string `json:"remaining"`
	Display   string `json:"display"` // "used/limit"
}

type QuotaSummaryDTO struct {
	EmployeeID string   `json:"employee_id"`
	CCNL       string   `json:"ccnl"`
	Vacation   QuotaDTO `json:"vacation"`
	ROL        QuotaDTO `json:"rol"`
	Sick       QuotaDTO `json:"sick"`
}

func toQuotaDTO(q generic.Quota) QuotaDTO {
	return QuotaDTO{
		Unit:      string(q.Limit.Unit),
		Limit:     q.Limit.Value.String(),
		Used:      q.Used.Value.String(),
		Remaining: q.Remaining().Value.String(),
		Display:   fmt.Sprintf("%s/%s", q.Used.Value.String(), q.Limit.Value.String()),
	}
}

func toQuotaSummaryDTO(c scheduling.Contract) QuotaSummaryDTO {
	s := c.Summary()
	return QuotaSummaryDTO{
		EmployeeID: string(c.EmployeeID),
		CCNL:       c.CCNL,
		Vacation:   toQuotaDTO(s.Vacation),
		ROL:        toQuotaDTO(s.ROL),
		Sick:       toQuotaDTO(s.Sick),
	}
}

// ProjectionDTO is the effect of a request on its quota.
type ProjectionDTO struct {
	Unit         string `json:"unit"`
	Limit        string `json:"limit"`
	UsedBefore   string `json:"used_before"`
	Requested    string `json:"requested"`
	UsedAfter    string `json:"used_after"`
	Remaining    string `json:"remaining"`
	Overage      string `json:"overage"`
	ExceedsLimit bool   `json:"exceeds_limit"`
}

func toProjectionDTO(p generic.QuotaProjection) *ProjectionDTO {
	return &ProjectionDTO{
		Unit:         string(p.Limit.Unit),
		Limit:        p.Limit.Value.String(),
		UsedBefore:   p.UsedBefore.Value.String(),
		Requested:    p.Requested.Value.String(),
		UsedAfter:    p.UsedAfter.Value.String(),
		Remaining:    p.Remaining.Value.String(),
		Overage:      p.Overage.Value.String(),
		ExceedsLimit: p.ExceedsLimit,
	}
}

// =============================================================================
// PUBLICATION
// =============================================================================

type PublicationInfoDTO struct {
	DaysUntilPublication    int    `json:"days_until_publication"`
	ShiftsPublishedThisWeek bool   `json:"shifts_published_this_week"`
	ReferenceWeekStart      string `json:"reference_week_start"`
	Urgency                 string `json:"urgency"`
}

func toPublicationInfoDTO(p scheduling.PublicationInfo) PublicationInfoDTO {
	return PublicationInfoDTO{
		DaysUntilPublication:    p.DaysUntilPublication,
		ShiftsPublishedThisWeek: p.ShiftsPublishedThisWeek,
		ReferenceWeekStart:      p.ReferenceWeekStart.String(),
		Urgency:                 string(p.Urgency),
	}
}

type WeekStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=DRAFT PUBLISHED"`
	ActorID string `json:"actor_id" validate:"required"`
}

type WeeklyShiftDTO struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	WeekStart string `json:"week_start"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toWeeklyShiftDTO(companyID scheduling.CompanyID, weekStart generic.TimePoint, ws *scheduling.WeeklyShift) WeeklyShiftDTO {
	dto := WeeklyShiftDTO{
		CompanyID: string(companyID),
		WeekStart: weekStart.String(),
		Status:    string(scheduling.StatusOf(ws)),
	}
	if ws != nil {
		dto.ID = ws.ID
		dto.CreatedAt = ws.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// AUDIT
// =============================================================================

type AuditEntryDTO struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	EntityID  string         `json:"entity_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func toAuditEntryDTO(e generic.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(time.RFC3339),
		ActorID:   e.ActorID,
		Action:    string(e.Action),
		EntityID:  string(e.EntityID),
		Payload:   e.Payload,
	}
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

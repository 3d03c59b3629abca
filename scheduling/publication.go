package scheduling

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
)

// =============================================================================
// WEEKLY PUBLICATION STATE MACHINE
// =============================================================================
//
//   NOT_PUBLISHED --> DRAFT --> PUBLISHED
//         \____________________/^
//
// NOT_PUBLISHED means no record exists for the week. PUBLISHED is terminal.
// Transitions happen through manager actions outside this package; the
// engine only derives state and due dates.

// DefaultPublicationDay is the weekday plans for the next week are due.
const DefaultPublicationDay = time.Friday

// StatusOf returns the state represented by the latest record of a week.
func StatusOf(record *WeeklyShift) PublicationStatus {
	if record == nil || record.Status == "" {
		return StatusNotPublished
	}
	return record.Status
}

// CanTransition reports whether a week may move from one state to another.
func CanTransition(from, to PublicationStatus) bool {
	switch from {
	case StatusNotPublished:
		return to == StatusDraft || to == StatusPublished
	case StatusDraft:
		return to == StatusPublished
	}
	return false
}

// CheckTransition is CanTransition as an error.
func CheckTransition(from, to PublicationStatus) error {
	if !CanTransition(from, to) {
		return &generic.TransitionError{Kind: "weekly_shift", From: string(from), To: string(to)}
	}
	return nil
}

// =============================================================================
// URGENCY
// =============================================================================

type Urgency string

const (
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyLow      Urgency = "LOW"
)

// ClassifyUrgency maps days until publication onto a banner level.
func ClassifyUrgency(daysUntilPublication int) Urgency {
	switch {
	case daysUntilPublication <= 0:
		return UrgencyCritical
	case daysUntilPublication == 1:
		return UrgencyHigh
	case daysUntilPublication <= 2:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// =============================================================================
// PUBLICATION SERVICE
// =============================================================================

// PublicationInfo is advisory banner data for managers.
type PublicationInfo struct {
	DaysUntilPublication    int
	ShiftsPublishedThisWeek bool
	ReferenceWeekStart      generic.TimePoint
	Urgency                 Urgency
}

type PublicationService struct {
	WeeklyShifts   WeeklyShiftStore
	PublicationDay time.Weekday
	Logger         *zap.Logger
	Now            func() time.Time
}

func NewPublicationService(store WeeklyShiftStore, publicationDay time.Weekday, logger *zap.Logger) *PublicationService {
	return &PublicationService{
		WeeklyShifts:   store,
		PublicationDay: publicationDay,
		Logger:         logger,
		Now:            time.Now,
	}
}

// GetPublicationInfo combines the due date with whether the reference week
// already has a PUBLISHED record. A failed lookup is logged and reported as
// not published; it never fails the call.
func (ps *PublicationService) GetPublicationInfo(ctx context.Context, companyID CompanyID) PublicationInfo {
	now := time.Now()
	if ps.Now != nil {
		now = ps.Now()
	}
	today := generic.DateOf(now)

	days := generic.DaysUntilNextPublicationDay(today, ps.PublicationDay)
	info := PublicationInfo{
		DaysUntilPublication: days,
		ReferenceWeekStart:   generic.ReferenceWeekStart(today, ps.PublicationDay),
		Urgency:              ClassifyUrgency(days),
	}

	record, err := ps.WeeklyShifts.PublishedRecordForWeek(ctx, companyID, info.ReferenceWeekStart)
	if err != nil {
		loggerOrNop(ps.Logger).Warn("publication lookup failed, assuming not published",
			zap.String("company_id", string(companyID)),
			zap.String("week_start", info.ReferenceWeekStart.String()),
			zap.Error(err))
		return info
	}
	info.ShiftsPublishedThisWeek = StatusOf(record) == StatusPublished
	return info
}

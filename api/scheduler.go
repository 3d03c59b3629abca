/*
scheduler.go - Publication reminder scheduler

PURPOSE:
  Periodically checks every company's upcoming week and logs a warning
  when the roster is due soon (HIGH) or due today/overdue (CRITICAL) and
  still not published. Each check goes through the PublicationService,
  so with Redis enabled it also keeps the publication cache warm.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Companies are whatever the store has data for (ListCompanies)
  - A failing company is logged and skipped; the sweep continues

CONFIGURATION:
  - CheckInterval: How often to check (publication.reminder_interval)
  - Enabled: Whether scheduler is active (publication.reminder_enabled)

USAGE:
  reminder := NewPublicationReminder(store, publication, logger)
  reminder.Start()
  // ... later
  reminder.Stop()

SEE ALSO:
  - scheduling/publication.go: GetPublicationInfo
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

// CompanyLister lists the companies the store has data for.
type CompanyLister interface {
	ListCompanies(ctx context.Context) ([]scheduling.CompanyID, error)
}

// Reminder is one company whose reference week needs attention.
type Reminder struct {
	CompanyID scheduling.CompanyID
	Info      scheduling.PublicationInfo
}

// PublicationReminder warns about weeks that are due and unpublished.
type PublicationReminder struct {
	Companies     CompanyLister
	Publication   *scheduling.PublicationService
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPublicationReminder creates a new scheduler.
func NewPublicationReminder(companies CompanyLister, publication *scheduling.PublicationService, logger *zap.Logger) *PublicationReminder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicationReminder{
		Companies:     companies,
		Publication:   publication,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (pr *PublicationReminder) Start() {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if !pr.Enabled {
		pr.Logger.Info("publication reminder disabled, not starting")
		return
	}
	if pr.ticker != nil {
		return
	}

	pr.ticker = time.NewTicker(pr.CheckInterval)
	pr.stop = make(chan struct{})
	pr.wg.Add(1)

	go pr.run(pr.ticker, pr.stop)

	pr.Logger.Info("publication reminder started", zap.Duration("interval", pr.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight sweep.
func (pr *PublicationReminder) Stop() {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if pr.ticker == nil {
		return
	}
	pr.ticker.Stop()
	close(pr.stop)
	pr.wg.Wait()
	pr.ticker = nil
	pr.Logger.Info("publication reminder stopped")
}

func (pr *PublicationReminder) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer pr.wg.Done()

	// Run immediately on start
	pr.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			pr.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow checks every company once and returns the ones that were
// warned about.
func (pr *PublicationReminder) RunNow(ctx context.Context) []Reminder {
	companies, err := pr.Companies.ListCompanies(ctx)
	if err != nil {
		pr.Logger.Error("failed to list companies", zap.Error(err))
		return nil
	}

	var due []Reminder
	for _, c := range companies {
		info := pr.Publication.GetPublicationInfo(ctx, c)
		if info.ShiftsPublishedThisWeek || !needsReminder(info.Urgency) {
			continue
		}
		due = append(due, Reminder{CompanyID: c, Info: info})
		pr.Logger.Warn("weekly roster not published",
			zap.String("company_id", string(c)),
			zap.String("week_start", info.ReferenceWeekStart.String()),
			zap.Int("days_until_publication", info.DaysUntilPublication),
			zap.String("urgency", string(info.Urgency)))
	}
	return due
}

func needsReminder(u scheduling.Urgency) bool {
	return u == scheduling.UrgencyCritical || u == scheduling.UrgencyHigh
}

package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"seatime-backend/internal/alerts"
	"seatime-backend/internal/compliance"
	"seatime-backend/internal/database"
	"seatime-backend/internal/models"
	"seatime-backend/internal/store"
)

// source is the data the notifier reads and writes. pgSource is the real one.
type source interface {
	LoggedSeries(ctx context.Context) ([]store.LoggedSeries, error)
	StateSeries(ctx context.Context, userID, vesselID string) ([]compliance.StateLog, error)
	VisaAreas(ctx context.Context) ([]models.VisaArea, error)
	VisaEntries(ctx context.Context, areaID string) ([]compliance.VisaEntry, error)
	Notify(ctx context.Context, n store.NewNotification, day time.Time) (bool, error)
}

type pgSource struct {
	db database.Service
}

func (s pgSource) LoggedSeries(ctx context.Context) ([]store.LoggedSeries, error) {
	return store.ListLoggedSeries(ctx, s.db.GetPool())
}

func (s pgSource) StateSeries(ctx context.Context, userID, vesselID string) ([]compliance.StateLog, error) {
	return store.LoadStateSeries(ctx, s.db.GetPool(), userID, vesselID)
}

func (s pgSource) VisaAreas(ctx context.Context) ([]models.VisaArea, error) {
	return store.ListVisaAreas(ctx, s.db.GetPool(), "")
}

func (s pgSource) VisaEntries(ctx context.Context, areaID string) ([]compliance.VisaEntry, error) {
	return store.LoadVisaEntries(ctx, s.db.GetPool(), areaID)
}

func (s pgSource) Notify(ctx context.Context, n store.NewNotification, day time.Time) (bool, error) {
	return store.InsertNotificationOnce(ctx, s.db.GetPool(), n, day)
}

// Notifier turns unlogged days and visa usage into notifications and alerts.
type Notifier struct {
	src          source
	pub          alerts.Publisher
	reminderDays int
	now          func() time.Time
}

// NewNotifier creates a Notifier backed by the database.
func NewNotifier(db database.Service, pub alerts.Publisher, reminderDays int) *Notifier {
	return &Notifier{src: pgSource{db: db}, pub: pub, reminderDays: reminderDays, now: time.Now}
}

// StartNotifier launches a background goroutine that runs once immediately
// and then every 24 h until ctx is cancelled.
func StartNotifier(ctx context.Context, db database.Service, pub alerts.Publisher, reminderDays int) {
	n := NewNotifier(db, pub, reminderDays)
	go func() {
		n.RunCycle(ctx)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[cron] notifier stopped")
				return
			case <-ticker.C:
				n.RunCycle(ctx)
			}
		}
	}()

	log.Printf("[cron] reminder notifier started – runs every 24 h (gap threshold %d days)", reminderDays)
}

// Summary counts what one cycle produced.
type Summary struct {
	GapReminders int
	VisaAlerts   int
	Published    int
}

// RunCycle checks every log series and every visa area once. Failures on a
// single series or area are logged and skipped.
func (n *Notifier) RunCycle(parent context.Context) Summary {
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	now := n.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var sum Summary

	// ─── 1. Unlogged days ───
	series, err := n.src.LoggedSeries(ctx)
	if err != nil {
		log.Printf("[cron] error listing log series: %v", err)
	}
	for _, s := range series {
		logs, err := n.src.StateSeries(ctx, s.UserID, s.VesselID)
		if err != nil {
			log.Printf("[cron] load logs user=%s vessel=%s: %v", s.UserID, s.VesselID, err)
			continue
		}
		a, ok := gapReminder(s, compliance.ProposeGapFill(logs, now), n.reminderDays)
		if !ok {
			continue
		}
		if n.deliver(ctx, a, today, &sum) {
			sum.GapReminders++
		}
	}

	// ─── 2. Visa allowances ───
	areas, err := n.src.VisaAreas(ctx)
	if err != nil {
		log.Printf("[cron] error listing visa areas: %v", err)
	}
	for _, area := range areas {
		entries, err := n.src.VisaEntries(ctx, area.ID)
		if err != nil {
			log.Printf("[cron] load entries area=%s: %v", area.ID, err)
			continue
		}
		result := compliance.CalculateVisaCompliance(area.Rule(), entries, now, nil)
		a, ok := visaAlert(area, result)
		if !ok {
			continue
		}
		if n.deliver(ctx, a, today, &sum) {
			sum.VisaAlerts++
		}
	}

	log.Printf("[cron] reminder check complete – %d gap reminders, %d visa alerts, %d published",
		sum.GapReminders, sum.VisaAlerts, sum.Published)
	return sum
}

// deliver stores the notification and publishes the alert only when the
// notification is new for today.
func (n *Notifier) deliver(ctx context.Context, a alerts.Alert, today time.Time, sum *Summary) bool {
	inserted, err := n.src.Notify(ctx, store.NewNotification{
		UserID:     a.UserID,
		Title:      a.Title,
		Message:    a.Message,
		Type:       string(a.Kind),
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
	}, today)
	if err != nil {
		log.Printf("[cron] insert notification error: %v", err)
		return false
	}
	if !inserted {
		return false
	}

	a.CreatedAt = n.now()
	if err := n.pub.Publish(a); err != nil {
		log.Printf("[cron] publish %s: %v", a.Topic(), err)
	} else {
		sum.Published++
	}
	return true
}

// gapReminder builds a "log your days" alert once at least threshold days
// are missing.
func gapReminder(s store.LoggedSeries, p compliance.GapProposal, threshold int) (alerts.Alert, bool) {
	if len(p.MissingDays) == 0 || len(p.MissingDays) < threshold || p.LastLoggedDate == nil {
		return alerts.Alert{}, false
	}
	return alerts.Alert{
		Kind:       alerts.KindGapReminder,
		UserID:     s.UserID,
		EntityType: "vessel",
		EntityID:   s.VesselID,
		Title:      fmt.Sprintf("Log your days on %s", s.VesselName),
		Message: fmt.Sprintf(
			"%d days unlogged since %s (last state: %s). Review the proposed fill.",
			len(p.MissingDays), compliance.FormatDay(*p.LastLoggedDate), *p.LastLoggedState,
		),
	}, true
}

// visaAlert builds a violation or warning alert for an area, if either applies.
func visaAlert(area models.VisaArea, r compliance.ComplianceResult) (alerts.Alert, bool) {
	a := alerts.Alert{
		UserID:     area.UserID,
		EntityType: "visa_area",
		EntityID:   area.ID,
	}
	switch {
	case !r.IsCompliant:
		a.Kind = alerts.KindVisaViolation
		a.Title = fmt.Sprintf("%s – allowance exceeded", area.AreaName)
		a.Message = fmt.Sprintf("%s: %d days used against a limit of %d (%s).",
			area.AreaName, r.DaysUsed, area.DaysAllowed, area.Rule())
	case r.IsWarning:
		a.Kind = alerts.KindVisaWarning
		a.Title = fmt.Sprintf("%s – allowance running low", area.AreaName)
		a.Message = fmt.Sprintf("%s: %d of %d days left (%s).",
			area.AreaName, r.DaysRemaining, area.DaysAllowed, area.Rule())
	default:
		return alerts.Alert{}, false
	}
	return a, true
}

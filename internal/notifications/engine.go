package notifications

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrcode/medtrack/internal/models"
	"github.com/mrcode/medtrack/internal/schedule"
)

// Alert type constants, the last component of every dedup key
const (
	alertPreDose    = "PRE_DOSE"
	alertMissedDose = "MISSED_DOSE"
)

// LiveLog re-reads the persisted taken log. Fire-time callbacks call it
// instead of trusting the state captured when the timer was scheduled: a
// dose marked taken between scheduling and firing must not notify.
type LiveLog func() models.TakenLog

// Engine schedules pre-dose and missed-dose alerts for today's
// occurrences. Each (medication, date, scheduled time, alert type) fires
// at most once per day; taking a dose cancels and un-marks both alerts
// for that instance.
type Engine struct {
	notifier Notifier
	liveLog  LiveLog
	prefs    func() models.Preferences
	log      *logrus.Logger

	mu     sync.Mutex
	timers []*time.Timer
	fired  map[string]struct{}
	now    func() time.Time
}

// NewEngine creates a notification timing engine
func NewEngine(notifier Notifier, liveLog LiveLog, prefs func() models.Preferences, log *logrus.Logger) *Engine {
	return &Engine{
		notifier: notifier,
		liveLog:  liveLog,
		prefs:    prefs,
		log:      log,
		fired:    make(map[string]struct{}),
		now:      time.Now,
	}
}

// alertKey builds the dedup identity of one alert
func alertKey(medID, date, scheduledTime, alertType string) string {
	return medID + "|" + date + "|" + scheduledTime + "|" + alertType
}

// Reschedule cancels every pending timer and rebuilds today's alerts from
// scratch against the current wall clock. It runs on every occurrence or
// taken-log change; cancel-all/reschedule-all keeps duplicate and stale
// timers from accumulating without tracking timer identity.
func (e *Engine) Reschedule(items []schedule.Item, today string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelAllLocked()

	prefs := e.prefs().Normalized()
	now := e.now()

	for _, item := range items {
		// The engine is scoped to today; viewed past/future dates never
		// schedule alerts.
		if item.Date != today {
			continue
		}

		preKey := alertKey(item.Medication.ID, item.Date, item.ScheduledTime, alertPreDose)
		missedKey := alertKey(item.Medication.ID, item.Date, item.ScheduledTime, alertMissedDose)

		if item.IsTaken {
			// Un-marking and re-evaluating later makes the keys eligible
			// again.
			delete(e.fired, preKey)
			delete(e.fired, missedKey)
			continue
		}

		doseAt, err := time.ParseInLocation(
			models.DateLayout+" "+models.ClockLayout,
			item.Date+" "+item.Intake.Time, now.Location())
		if err != nil {
			e.log.WithError(err).Warnf("unparseable dose time %q %q", item.Date, item.Intake.Time)
			continue
		}

		if prefs.RemindersEnabled {
			if _, done := e.fired[preKey]; !done {
				preAt := doseAt.Add(-time.Duration(prefs.PreDoseLeadMinutes) * time.Minute)
				if preAt.After(now) {
					e.scheduleLocked(preAt.Sub(now), item, preKey, alertPreDose)
				}
			}
		}

		if prefs.MissedAlertsEnabled {
			if _, done := e.fired[missedKey]; !done {
				missedAt := doseAt.Add(time.Duration(prefs.MissedGraceMinutes) * time.Minute)
				if missedAt.After(now) {
					e.scheduleLocked(missedAt.Sub(now), item, missedKey, alertMissedDose)
				} else {
					// Already overdue when the engine ran; fire now.
					e.fireLocked(item, missedKey, alertMissedDose)
				}
			}
		}
	}
}

// scheduleLocked arms one timer. Caller holds e.mu.
func (e *Engine) scheduleLocked(delay time.Duration, item schedule.Item, key, alertType string) {
	e.timers = append(e.timers, time.AfterFunc(delay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.fireLocked(item, key, alertType)
	}))
}

// fireLocked emits one alert after re-checking dedup state and the live
// taken log. Caller holds e.mu.
func (e *Engine) fireLocked(item schedule.Item, key, alertType string) {
	if _, done := e.fired[key]; done {
		return
	}
	if e.liveLog().Taken(item.Medication.ID, item.Date, item.ScheduledTime) {
		// Taken since this timer was set; skip silently.
		return
	}

	title, body := formatAlert(item, alertType, e.prefs().Normalized())
	if err := e.notifier.Notify(title, body, key); err != nil {
		// Not recorded as fired; the next reschedule may retry.
		e.log.WithError(err).Warn("delivering notification")
		return
	}
	e.fired[key] = struct{}{}
}

// formatAlert builds the notification title and body for one alert
func formatAlert(item schedule.Item, alertType string, prefs models.Preferences) (string, string) {
	name := item.Medication.Name
	dose := fmt.Sprintf("%s %s", item.Intake.DisplayDosage(), item.Intake.DisplayUnit())

	if alertType == alertPreDose {
		return fmt.Sprintf("Reminder: %s", name),
			fmt.Sprintf("Time to take your %s (%s) in %d minutes at %s.",
				name, dose, prefs.PreDoseLeadMinutes, item.Intake.Time)
	}
	return fmt.Sprintf("Missed Dose: %s", name),
		fmt.Sprintf("You may have missed your dose of %s (%s) scheduled for %s.",
			name, dose, item.Intake.Time)
}

// cancelAllLocked stops every pending timer. Caller holds e.mu.
func (e *Engine) cancelAllLocked() {
	for _, t := range e.timers {
		t.Stop()
	}
	e.timers = nil
}

// ResetDay clears the dedup set so a new day's identical HH:MM keys are
// eligible again and the set does not grow without bound
func (e *Engine) ResetDay() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fired = make(map[string]struct{})
}

// Shutdown cancels all outstanding timers so no orphaned callbacks
// reference released state
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelAllLocked()
}

// Package app provides the main application logic
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mrcode/medtrack/internal/config"
	"github.com/mrcode/medtrack/internal/models"
	"github.com/mrcode/medtrack/internal/notifications"
	"github.com/mrcode/medtrack/internal/schedule"
	"github.com/mrcode/medtrack/internal/store"
)

// ErrNotFound is returned by mutations targeting an unknown medication
var ErrNotFound = errors.New("medication not found")

// App owns the persisted state, the mutation interface and the
// notification engine lifecycle
type App struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    *store.Store
	notifier *notifications.SystemNotifier
	engine   *notifications.Engine

	mu          sync.RWMutex
	medications []models.Medication
	takenLog    models.TakenLog
	reschedules []models.Reschedule
	prefs       models.Preferences

	ticker    *time.Ticker
	stopChan  chan struct{}
	isRunning bool

	now func() time.Time
}

// New creates an App, opening the store and loading all persisted records.
// Unreadable records load as defaults so the app stays usable.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	st, err := store.Open(cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	a := &App{
		cfg:         cfg,
		log:         log,
		store:       st,
		notifier:    notifications.NewSystemNotifier(),
		medications: st.Medications(),
		takenLog:    st.TakenLog(),
		reschedules: st.Reschedules(),
		prefs:       st.Preferences(),
		stopChan:    make(chan struct{}),
		now:         time.Now,
	}
	// The engine re-reads the persisted log and preferences at fire time,
	// never the copies captured when its timers were scheduled.
	a.engine = notifications.NewEngine(a.notifier, st.TakenLog, st.Preferences, log)
	return a, nil
}

// Startup requests notification permission, runs the daily reset check and
// starts the background loop that watches for day changes
func (a *App) Startup() {
	prefs := a.Preferences()
	a.notifier.SetEnabled(prefs.RemindersEnabled || prefs.MissedAlertsEnabled)
	if a.notifier.RequestPermission() != notifications.PermissionGranted {
		a.log.Info("notification permission not granted, reminders will be silent")
	}

	a.resetIfNewDay()
	a.refreshEngine()

	a.mu.Lock()
	if !a.isRunning {
		a.isRunning = true
		a.ticker = time.NewTicker(a.cfg.CheckInterval)
		go a.watchLoop()
	}
	a.mu.Unlock()
}

// watchLoop re-runs the daily reset check on an interval. A day change
// prunes stale reschedules, clears the dedup set and reschedules the new
// day's alerts.
func (a *App) watchLoop() {
	for {
		select {
		case <-a.ticker.C:
			if a.resetIfNewDay() {
				a.refreshEngine()
			}
		case <-a.stopChan:
			return
		}
	}
}

// Shutdown stops the background loop, cancels all pending notification
// timers and closes the store
func (a *App) Shutdown() {
	a.mu.Lock()
	if a.ticker != nil {
		a.ticker.Stop()
	}
	if a.isRunning {
		close(a.stopChan)
		a.isRunning = false
	}
	a.mu.Unlock()

	a.engine.Shutdown()
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("closing store")
	}
}

// Medications returns a copy of the medication list
func (a *App) Medications() []models.Medication {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.Medication(nil), a.medications...)
}

// Preferences returns the current alert preferences
func (a *App) Preferences() models.Preferences {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.prefs
}

// SavePreferences persists new alert preferences and reschedules today's
// alerts under them
func (a *App) SavePreferences(prefs models.Preferences) error {
	prefs = prefs.Normalized()
	if err := a.store.SavePreferences(prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	a.mu.Lock()
	a.prefs = prefs
	a.mu.Unlock()

	a.notifier.SetEnabled(prefs.RemindersEnabled || prefs.MissedAlertsEnabled)
	a.refreshEngine()
	return nil
}

// ForDate resolves all dose occurrences for one calendar date
func (a *App) ForDate(date time.Time) []schedule.Item {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return schedule.ForDate(a.medications, a.takenLog, a.reschedules, date)
}

// AddMedication validates and stores a new medication, assigning its
// identity and timestamps
func (a *App) AddMedication(med models.Medication) (models.Medication, error) {
	med.ID = uuid.NewString()
	med.CreatedAt = a.now()
	med.UpdatedAt = med.CreatedAt
	if err := med.Validate(); err != nil {
		return models.Medication{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	meds := append(append([]models.Medication(nil), a.medications...), med)
	if err := a.store.SaveMedications(meds); err != nil {
		return models.Medication{}, fmt.Errorf("saving medications: %w", err)
	}
	a.medications = meds

	a.refreshEngineLocked()
	return med, nil
}

// hasMedicationLocked reports whether a medication with the id exists.
// Caller holds a.mu.
func (a *App) hasMedicationLocked(id string) bool {
	for _, med := range a.medications {
		if med.ID == id {
			return true
		}
	}
	return false
}

// UpdateMedication validates and stores changes to an existing medication.
// Identity and creation time are preserved.
func (a *App) UpdateMedication(id string, med models.Medication) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := -1
	for i, existing := range a.medications {
		if existing.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	med.ID = id
	med.CreatedAt = a.medications[idx].CreatedAt
	med.UpdatedAt = a.now()
	if err := med.Validate(); err != nil {
		return err
	}

	meds := append([]models.Medication(nil), a.medications...)
	meds[idx] = med
	if err := a.store.SaveMedications(meds); err != nil {
		return fmt.Errorf("saving medications: %w", err)
	}
	a.medications = meds

	a.refreshEngineLocked()
	return nil
}

// DeleteMedication removes a medication along with its taken-log entries
// and reschedules. The three records commit in one transaction so no
// orphans survive a partial failure.
func (a *App) DeleteMedication(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	meds := make([]models.Medication, 0, len(a.medications))
	found := false
	for _, med := range a.medications {
		if med.ID == id {
			found = true
			continue
		}
		meds = append(meds, med)
	}
	if !found {
		return ErrNotFound
	}

	newLog := a.takenLog.WithoutMedication(id)
	reschedules := make([]models.Reschedule, 0, len(a.reschedules))
	for _, r := range a.reschedules {
		if r.MedicationID != id {
			reschedules = append(reschedules, r)
		}
	}

	err := a.store.Transact(func(tx *store.Store) error {
		if err := tx.SaveMedications(meds); err != nil {
			return err
		}
		if err := tx.SaveTakenLog(newLog); err != nil {
			return err
		}
		return tx.SaveReschedules(reschedules)
	})
	if err != nil {
		return fmt.Errorf("deleting medication: %w", err)
	}

	a.medications = meds
	a.takenLog = newLog
	a.reschedules = reschedules

	a.refreshEngineLocked()
	return nil
}

// MarkAsTaken records one occurrence as taken. The scheduled time is the
// original one, regardless of any reschedule. An empty actualTime records
// the current wall-clock time.
func (a *App) MarkAsTaken(medID, date, scheduledTime, actualTime string) error {
	if actualTime == "" {
		actualTime = a.now().Format(models.ClockLayout)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.hasMedicationLocked(medID) {
		return ErrNotFound
	}

	newLog := a.takenLog.WithEntry(medID, date, scheduledTime, models.TakenEntry{
		Taken:           true,
		ActualTakenTime: actualTime,
	})
	if err := a.store.SaveTakenLog(newLog); err != nil {
		return fmt.Errorf("saving taken log: %w", err)
	}
	a.takenLog = newLog

	a.refreshEngineLocked()
	return nil
}

// UnmarkAsTaken reverts a mark-as-taken, clearing the recorded actual
// time. Unknown occurrences are a no-op.
func (a *App) UnmarkAsTaken(medID, date, scheduledTime string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.takenLog.Entry(medID, date, scheduledTime); !ok {
		return nil
	}

	newLog := a.takenLog.WithEntry(medID, date, scheduledTime, models.TakenEntry{Taken: false})
	if err := a.store.SaveTakenLog(newLog); err != nil {
		return fmt.Errorf("saving taken log: %w", err)
	}
	a.takenLog = newLog

	a.refreshEngineLocked()
	return nil
}

// AddReschedule shifts one of today's occurrences to a new time for today
// only. A reschedule for the same occurrence slot replaces the previous
// one.
func (a *App) AddReschedule(medID, originalDate, originalTime, newTime string) error {
	if !models.ValidDate(originalDate) {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", originalDate)
	}
	if !models.ValidClock(originalTime) || !models.ValidClock(newTime) {
		return fmt.Errorf("invalid time, want HH:MM")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.hasMedicationLocked(medID) {
		return ErrNotFound
	}

	r := models.Reschedule{
		MedicationID: medID,
		OriginalDate: originalDate,
		OriginalTime: originalTime,
		NewTime:      newTime,
		AppliedDate:  a.now().Format(models.DateLayout),
	}
	reschedules := models.UpsertReschedule(a.reschedules, r)
	if err := a.store.SaveReschedules(reschedules); err != nil {
		return fmt.Errorf("saving reschedules: %w", err)
	}
	a.reschedules = reschedules

	a.refreshEngineLocked()
	return nil
}

// resetIfNewDay performs the daily housekeeping exactly once per calendar
// day: it prunes reschedules not applied today and clears the
// notification dedup set. Returns true when a reset ran.
func (a *App) resetIfNewDay() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := a.now().Format(models.DateLayout)
	if a.store.LastResetDate() == today {
		return false
	}
	a.log.Infof("daily reset for %s", today)

	kept := make([]models.Reschedule, 0, len(a.reschedules))
	for _, r := range a.reschedules {
		if r.AppliedDate == today {
			kept = append(kept, r)
		}
	}

	err := a.store.Transact(func(tx *store.Store) error {
		if err := tx.SaveReschedules(kept); err != nil {
			return err
		}
		return tx.SaveLastResetDate(today)
	})
	if err != nil {
		a.log.WithError(err).Warn("daily reset not persisted")
		return false
	}

	a.reschedules = kept
	a.engine.ResetDay()
	return true
}

// refreshEngine reschedules today's alerts from current state
func (a *App) refreshEngine() {
	a.mu.RLock()
	defer a.mu.RUnlock()
	a.refreshEngineLocked()
}

// refreshEngineLocked is refreshEngine for callers already holding a.mu
func (a *App) refreshEngineLocked() {
	now := a.now()
	items := schedule.ForDate(a.medications, a.takenLog, a.reschedules, now)
	a.engine.Reschedule(items, now.Format(models.DateLayout))
}

// SendTestNotification sends a test notification
func (a *App) SendTestNotification() error {
	return a.notifier.SendTestNotification()
}

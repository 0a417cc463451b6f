package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/medibuddy/medibuddy/internal/metrics"
	"github.com/medibuddy/medibuddy/internal/models"
	"github.com/medibuddy/medibuddy/internal/notify"
	"github.com/medibuddy/medibuddy/internal/repository"
	"github.com/medibuddy/medibuddy/internal/schedule"
)

// DefaultPollInterval is the cadence at which alarms are evaluated. One tick
// per minute pairs with the exact HH:MM due match.
const DefaultPollInterval = 60 * time.Second

// Dispatcher is the poll loop that evaluates every enabled alarm against the
// current time and hands due reminders to the notification transport. It never
// blocks store writers; each tick reads a fresh snapshot of the collection.
type Dispatcher struct {
	store    repository.MedicineStore
	notifier notify.Notifier
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time

	// lifecycle serializes Start/Stop so overlapping calls cannot race on
	// cancel or reuse the loop waitgroup while a Wait is still in flight.
	lifecycle sync.Mutex
	running   *atomic.Bool
	cancel    context.CancelFunc
	loop      sync.WaitGroup
	sends     sync.WaitGroup

	// lastSent maps "medicineID|alarmID" to the minute a reminder was last
	// dispatched for. Process-local on purpose: a restart may re-fire an alarm
	// whose minute is still current.
	mu       sync.Mutex
	lastSent map[string]string
}

// NewDispatcher creates a stopped dispatcher.
func NewDispatcher(store repository.MedicineStore, notifier notify.Notifier, m *metrics.Metrics, logger *logrus.Logger, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Dispatcher{
		store:    store,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		interval: interval,
		now:      time.Now,
		running:  atomic.NewBool(false),
		lastSent: make(map[string]string),
	}
}

// Start arms the poll loop. Calling Start on a running dispatcher is a no-op.
func (d *Dispatcher) Start() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if d.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.loop.Add(1)
	go d.run(ctx)

	d.running.Store(true)
	d.logger.Info("Notification dispatcher started")
}

// Stop disarms the poll loop and waits for the loop goroutine and any
// in-flight sends to finish. Safe to call at any point, including mid-tick or
// concurrently with Start; calling Stop on a stopped dispatcher is a no-op.
func (d *Dispatcher) Stop() {
	d.lifecycle.Lock()
	if d.running.Load() {
		d.cancel()
		d.loop.Wait()
		d.running.Store(false)
		d.logger.Info("Notification dispatcher stopped")
	}
	d.lifecycle.Unlock()

	d.sends.Wait()
}

// Running reports whether the loop is armed.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.loop.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				d.logger.Errorf("Tick aborted: %v", err)
			}
		}
	}
}

// Tick runs one evaluation pass: snapshot the clock, read the collection, and
// dispatch every due (medicine, alarm) pair that has not already been sent for
// the current minute. A store read failure aborts only this tick; the loop
// stays armed. Ticks never overlap because the loop is single-threaded.
func (d *Dispatcher) Tick(ctx context.Context) error {
	now := d.now()

	medicines, err := d.store.LoadAll(ctx)
	if err != nil {
		d.metrics.TickErrors.Inc()
		return fmt.Errorf("failed to load medicines: %w", err)
	}

	minute := schedule.MinuteKey(now)
	for _, m := range medicines {
		if m.NotifyDestination == "" {
			continue
		}

		spent := make([]string, 0)
		for _, a := range m.Alarms {
			if !schedule.IsDueNow(m, a, now) {
				continue
			}
			if !d.markDispatched(m.ID, a.ID, minute) {
				d.metrics.DedupSuppressed.Inc()
				continue
			}

			d.dispatch(m, a)
			if m.Type == models.MedicineTypeOneTime {
				spent = append(spent, a.ID)
			}
		}

		if len(spent) > 0 {
			d.disableAlarms(ctx, m, spent)
		}
	}

	d.metrics.Ticks.Inc()
	return nil
}

// markDispatched records the dispatch minute for the pair, returning false if
// the same minute was already dispatched by an earlier tick.
func (d *Dispatcher) markDispatched(medicineID, alarmID, minute string) bool {
	key := medicineID + "|" + alarmID

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastSent[key] == minute {
		return false
	}
	d.lastSent[key] = minute
	return true
}

// dispatch hands one reminder to the transport without waiting for it, so a
// hung send stalls neither the remaining pairs nor future ticks. Send failures
// are counted and logged, never propagated.
func (d *Dispatcher) dispatch(m models.Medicine, a models.Alarm) {
	text := fmt.Sprintf("Time to take your medicine: %s - %s", m.Name, m.Dosage)
	destination := m.NotifyDestination

	d.metrics.Dispatches.Inc()
	d.sends.Add(1)
	go func() {
		defer d.sends.Done()
		if err := d.notifier.Send(context.Background(), destination, text); err != nil {
			d.metrics.DispatchErrors.Inc()
			d.logger.Errorf("Failed to send reminder for medicine %s alarm %s: %v", m.ID, a.ID, err)
		}
	}()
}

// disableAlarms marks fired one-time alarms as spent so they do not re-fire
// every day at the same minute. Best-effort: a write failure is logged and the
// in-memory dedup entry still guards the current minute.
func (d *Dispatcher) disableAlarms(ctx context.Context, m models.Medicine, alarmIDs []string) {
	updated := m
	updated.Alarms = make([]models.Alarm, len(m.Alarms))
	copy(updated.Alarms, m.Alarms)

	for _, id := range alarmIDs {
		for i, a := range updated.Alarms {
			if a.ID == id {
				updated.Alarms[i].Enabled = false
			}
		}
	}

	if err := d.store.Upsert(ctx, updated); err != nil {
		d.logger.Errorf("Failed to mark one-time alarms spent for medicine %s: %v", m.ID, err)
	}
}

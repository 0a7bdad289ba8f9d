// Package worker keeps exported reports current as ledger events arrive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
)

// Exporter writes one user's report; *export.Exporter implements it.
type Exporter interface {
	Export(ctx context.Context, username string, w core.Window) (budget.Report, error)
}

// Config holds configuration for the export worker.
type Config struct {
	// FlushInterval is how often dirty users are exported (default: 30s).
	FlushInterval time.Duration

	// WindowMonths is how many calendar months each export covers, ending
	// with the current month (default: 12).
	WindowMonths int
}

func DefaultConfig() Config {
	return Config{
		FlushInterval: 30 * time.Second,
		WindowMonths:  12,
	}
}

// ExportWorker collects ledger events and re-exports the reports of the
// users they touch. Events are coalesced: several changes for one user
// between two flushes produce a single export.
type ExportWorker struct {
	exporter Exporter
	config   Config
	logger   *log.Logger
	now      func() time.Time

	mu    sync.Mutex
	known map[string]struct{}
	dirty map[string]struct{}

	// Lifecycle management
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportWorker(exporter Exporter, config Config, logger *log.Logger) *ExportWorker {
	def := DefaultConfig()
	if config.FlushInterval <= 0 {
		config.FlushInterval = def.FlushInterval
	}
	if config.WindowMonths <= 0 {
		config.WindowMonths = def.WindowMonths
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		exporter: exporter,
		config:   config,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
		known:    make(map[string]struct{}),
		dirty:    make(map[string]struct{}),
	}
}

// Track registers users whose reports must be refreshed by events that
// affect every user.
func (w *ExportWorker) Track(usernames ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range usernames {
		if u != "" {
			w.known[u] = struct{}{}
		}
	}
}

// HandleLedgerEvent marks the users touched by ev for the next flush.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev == nil {
		return errors.New("nil ledger event")
	}

	w.mu.Lock()
	if ev.AffectsAllUsers() {
		for u := range w.known {
			w.dirty[u] = struct{}{}
		}
	} else {
		w.known[ev.Username] = struct{}{}
		w.dirty[ev.Username] = struct{}{}
	}
	pending := len(w.dirty)
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "Ledger event received",
		log.FieldEventID, ev.ID,
		"type", ev.Type,
		log.FieldUsername, ev.Username,
		"pending", pending)
	return nil
}

// Pending returns the users waiting for an export, sorted.
func (w *ExportWorker) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return sortedKeys(w.dirty)
}

// Flush exports every pending user. Users whose export fails stay pending
// and are retried on the next flush.
func (w *ExportWorker) Flush(ctx context.Context) (int, error) {
	w.mu.Lock()
	users := sortedKeys(w.dirty)
	w.dirty = make(map[string]struct{})
	w.mu.Unlock()

	if len(users) == 0 {
		return 0, nil
	}

	window := export.TrailingWindow(core.DateOf(w.now()), w.config.WindowMonths)
	exported := 0
	var errs []error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			w.markDirty(u)
			errs = append(errs, err)
			continue
		}
		if _, err := w.exporter.Export(ctx, u, window); err != nil {
			w.markDirty(u)
			w.logger.ErrorContext(ctx, "Export failed",
				log.FieldUsername, u,
				log.FieldWindow, window.String(),
				log.FieldError, err)
			errs = append(errs, fmt.Errorf("export %s: %w", u, err))
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Export flush completed",
		"total", len(users),
		"exported", exported,
		"errors", len(errs))

	return exported, errors.Join(errs...)
}

func (w *ExportWorker) markDirty(u string) {
	w.mu.Lock()
	w.dirty[u] = struct{}{}
	w.mu.Unlock()
}

// Start begins the flush loop. Returns an error if already running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	w.logger.InfoContext(ctx, "Export worker started",
		"flush_interval", w.config.FlushInterval,
		"window_months", w.config.WindowMonths)
	return nil
}

// Stop signals the loop, waits for it and runs a last flush so no event
// received before Stop is lost.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	// Only the caller that clears running closes stopCh.
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}

	if _, err := w.Flush(ctx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	w.logger.InfoContext(ctx, "Export worker stopped gracefully")
	return nil
}

func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ExportWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Errors are logged per user and retried on the next tick.
			_, _ = w.Flush(ctx)
		}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

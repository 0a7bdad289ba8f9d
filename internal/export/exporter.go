package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

// Sink receives the tables of one user's report.
type Sink interface {
	Name() string
	Write(ctx context.Context, username string, w core.Window, tables []Table) error
}

// Reporter builds reports; *budget.Engine implements it.
type Reporter interface {
	Report(ctx context.Context, username string, w core.Window) (budget.Report, error)
}

// Exporter builds a report once and hands it to every sink concurrently.
type Exporter struct {
	reporter Reporter
	sinks    []Sink
	logger   *log.Logger
}

func NewExporter(reporter Reporter, logger *log.Logger, sinks ...Sink) *Exporter {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Exporter{reporter: reporter, sinks: sinks, logger: logger.WithComponent(log.ComponentExport)}
}

// Export writes the report of username over w to all sinks. The first sink
// error cancels the others and is returned.
func (e *Exporter) Export(ctx context.Context, username string, w core.Window) (budget.Report, error) {
	report, err := e.reporter.Report(ctx, username, w)
	if err != nil {
		return budget.Report{}, fmt.Errorf("build report: %w", err)
	}
	tables := Tables(report)

	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range e.sinks {
		sink := sink
		g.Go(func() error {
			start := time.Now()
			if err := sink.Write(gctx, username, w, tables); err != nil {
				return fmt.Errorf("sink %s: %w", sink.Name(), err)
			}
			e.logger.InfoContext(gctx, "Report exported",
				log.FieldSink, sink.Name(),
				log.FieldUsername, username,
				log.FieldWindow, w.String(),
				log.FieldDuration, time.Since(start).Milliseconds())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// TrailingWindow covers the last months calendar months up to and including
// the month of today.
func TrailingWindow(today core.Date, months int) core.Window {
	if months < 1 {
		months = 1
	}
	end := core.MonthWindow(today).End
	start := core.Date{Time: today.MonthStart().AddDate(0, -(months - 1), 0)}
	return core.NewWindow(start, end)
}

// maxKeySlug bounds the readable part of a UserKey.
const maxKeySlug = 40

// UserKey names a user's exports: a readable slug of username followed by
// a hash of the exact name. Usernames are case sensitive and slugs are not,
// so the hash keeps "Alice" and "alice" apart.
func UserKey(username string) string {
	sum := sha256.Sum256([]byte(username))
	hash := hex.EncodeToString(sum[:])[:10]

	s := slug.Make(username)
	if r := []rune(s); len(r) > maxKeySlug {
		s = string(r[:maxKeySlug])
	}
	if s == "" {
		return hash
	}
	return s + "-" + hash
}

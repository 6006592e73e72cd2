// Package importer creates venue records idempotently through the store.
package importer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/courtscout/internal/store"
	"github.com/sells-group/courtscout/internal/venue"
)

// Options configures throttling.
type Options struct {
	// ThrottleEvery pauses after every N import attempts. Zero disables.
	ThrottleEvery int
	ThrottlePause time.Duration
	// Sleep replaces the pause implementation in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Stats counts import outcomes.
type Stats struct {
	Attempted int
	Created   int
	Existing  int
	Failed    int
}

// Succeeded returns imports that did not fail, including no-op upserts.
func (s Stats) Succeeded() int {
	return s.Created + s.Existing
}

// Importer creates records one at a time. Not safe for concurrent use.
type Importer struct {
	store store.Store
	opts  Options
	stats Stats
	log   *zap.Logger
}

// New creates an Importer.
func New(s store.Store, opts Options) *Importer {
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Importer{
		store: s,
		opts:  opts,
		log:   zap.L().With(zap.String("component", "importer")),
	}
}

// Import creates r. It reports success (including when the record already
// existed) and the record id. Failures are logged and counted, never returned.
func (im *Importer) Import(ctx context.Context, r venue.Record) (bool, string) {
	im.stats.Attempted++
	defer im.throttle(ctx)

	created, err := im.store.Create(ctx, r)
	if err != nil {
		im.stats.Failed++
		im.log.Warn("import failed",
			zap.String("name", r.Name),
			zap.String("id", r.ID),
			zap.Error(err),
		)
		return false, r.ID
	}

	if created {
		im.stats.Created++
		im.log.Debug("imported", zap.String("name", r.Name), zap.String("id", r.ID))
	} else {
		im.stats.Existing++
		im.log.Debug("already exists", zap.String("name", r.Name), zap.String("id", r.ID))
	}
	return true, r.ID
}

// Stats returns the counters so far.
func (im *Importer) Stats() Stats {
	return im.stats
}

func (im *Importer) throttle(ctx context.Context) {
	if im.opts.ThrottleEvery <= 0 || im.opts.ThrottlePause <= 0 {
		return
	}
	if im.stats.Attempted%im.opts.ThrottleEvery != 0 {
		return
	}
	_ = im.opts.Sleep(ctx, im.opts.ThrottlePause)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

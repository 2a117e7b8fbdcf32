package catalog

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Catalog owns the current index and rebuilds it wholesale when a source
// file changes. In-flight requests keep reading the index they resolved;
// the swap is atomic so no reader ever observes a partial build.
type Catalog struct {
	sources []string
	logger  zerolog.Logger

	current atomic.Pointer[Index]
	mtimes  atomic.Pointer[map[string]time.Time]

	onReload func(*Index)

	cron *cron.Cron
}

// New loads the sources and returns a catalog ready to serve lookups.
func New(sources []string, logger zerolog.Logger) (*Catalog, error) {
	c := &Catalog{sources: sources, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewStatic wraps an already-built index in a catalog with no sources.
// Reload and the watcher are inert; useful for tests and embedded use.
func NewStatic(idx *Index) *Catalog {
	c := &Catalog{logger: zerolog.Nop()}
	c.current.Store(idx)
	return c
}

// Index returns the current immutable index.
func (c *Catalog) Index() *Index {
	return c.current.Load()
}

// OnReload registers a callback invoked with the new index after every
// swap, so dependent stores (the vector index) can rebuild. Must be set
// before StartWatcher.
func (c *Catalog) OnReload(fn func(*Index)) {
	c.onReload = fn
}

// Reload rebuilds the index from all sources and swaps it in. A catalog
// without sources keeps its current index.
func (c *Catalog) Reload() error {
	if len(c.sources) == 0 {
		return nil
	}
	idx, err := Load(c.sources, c.logger)
	if err != nil {
		return err
	}
	c.current.Store(idx)
	mtimes := c.sourceTimes()
	c.mtimes.Store(&mtimes)
	c.logger.Info().Int("rows", idx.Len()).Msg("catalog index swapped")
	if c.onReload != nil {
		c.onReload(idx)
	}
	return nil
}

// StartWatcher schedules a staleness check on the given cron expression.
// A detected mtime change triggers a full reload.
func (c *Catalog) StartWatcher(spec string) error {
	c.cron = cron.New()
	_, err := c.cron.AddFunc(spec, func() {
		if c.stale() {
			c.logger.Info().Msg("catalog sources changed, rebuilding")
			if err := c.Reload(); err != nil {
				c.logger.Error().Err(err).Msg("catalog rebuild failed, keeping previous index")
			}
		}
	})
	if err != nil {
		return err
	}
	c.cron.Start()
	return nil
}

// StopWatcher halts the staleness schedule, waiting for a running check.
func (c *Catalog) StopWatcher() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}

func (c *Catalog) stale() bool {
	known := c.mtimes.Load()
	if known == nil {
		return true
	}
	now := c.sourceTimes()
	if len(now) != len(*known) {
		return true
	}
	for src, t := range now {
		if prev, ok := (*known)[src]; !ok || !prev.Equal(t) {
			return true
		}
	}
	return false
}

func (c *Catalog) sourceTimes() map[string]time.Time {
	times := make(map[string]time.Time, len(c.sources))
	for _, src := range c.sources {
		if info, err := os.Stat(src); err == nil {
			times[src] = info.ModTime()
		}
	}
	return times
}

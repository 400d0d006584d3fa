package bytecode

import (
	"context"
	"time"
)

// PhpOpcache exposes a PHP opcache status snapshot through value objects.
// It is immutable after construction and safe for concurrent readers.
type PhpOpcache struct {
	status        *Status
	configuration Configuration
}

var (
	_ Cache           = (*PhpOpcache)(nil)
	_ RestartReporter = (*PhpOpcache)(nil)
)

// NewPhpOpcache wraps the given snapshot. When status is nil the configured
// StatusFunc is asked for one; if that reports no data or fails, a disabled
// empty cache is assumed.
func NewPhpOpcache(ctx context.Context, status *Status, configuration Configuration, opts ...Option) (*PhpOpcache, error) {
	o := options{statusFunc: unavailable}
	for _, opt := range opts {
		opt(&o)
	}

	if status == nil {
		fetched, err := o.statusFunc(ctx)
		if err != nil {
			if o.logger != nil {
				o.logger.Warn("opcache status unavailable, using fallback", "error", err)
			}
			fetched = nil
		}
		status = fetched
	}

	status = Normalize(status)
	if err := status.validate(); err != nil {
		return nil, err
	}

	if configuration == nil {
		configuration = Configuration{}
	}

	return &PhpOpcache{
		status:        status,
		configuration: configuration,
	}, nil
}

func (c *PhpOpcache) IsEnabled() bool {
	return c.status.Enabled
}

func (c *PhpOpcache) Memory() Memory {
	usage := c.status.MemoryUsage
	size := usage.UsedMemory + usage.WastedMemory + usage.FreeMemory
	return NewMemory(
		bytesToMb(usage.UsedMemory),
		bytesToMb(size),
		bytesToMb(usage.WastedMemory),
	)
}

func (c *PhpOpcache) Statistics() Statistics {
	return NewStatistics(c.status.Statistics.Hits, c.status.Statistics.Misses)
}

// Scripts returns the cached scripts in the order reported by the runtime.
func (c *PhpOpcache) Scripts() ScriptCollection {
	scripts := make([]Script, 0, len(c.status.Scripts))
	for _, s := range c.status.Scripts {
		scripts = append(scripts, NewScript(
			s.FullPath,
			bytesToMb(s.MemoryConsumption),
			s.Hits,
			time.Unix(s.LastUsedTimestamp, 0).UTC(),
		))
	}
	return NewScriptCollection(scripts, c.slots())
}

func (c *PhpOpcache) slots() ScriptSlots {
	stats := c.status.Statistics
	return NewScriptSlots(
		stats.NumCachedScripts,
		stats.MaxCachedKeys,
		stats.NumCachedKeys-stats.NumCachedScripts,
	)
}

func (c *PhpOpcache) Restarts() Restarts {
	stats := c.status.Statistics
	return NewRestarts(
		stats.OOMRestarts,
		stats.HashRestarts,
		stats.ManualRestarts,
		unixTime(stats.StartTime),
		unixTime(stats.LastRestartTime),
	)
}

// unixTime maps the runtime's "never" marker 0 to the zero time.
func unixTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func (c *PhpOpcache) Configuration() Configuration {
	return c.configuration
}

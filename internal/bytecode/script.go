package bytecode

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"
)

// Script is a single compiled file held by the cache.
type Script struct {
	fullPath              string
	memoryConsumptionInMb float64
	hits                  int64
	lastUsedAt            time.Time
}

func NewScript(fullPath string, memoryConsumptionInMb float64, hits int64, lastUsedAt time.Time) Script {
	return Script{
		fullPath:              fullPath,
		memoryConsumptionInMb: memoryConsumptionInMb,
		hits:                  hits,
		lastUsedAt:            lastUsedAt,
	}
}

func (s Script) FullPath() string {
	return s.fullPath
}

func (s Script) MemoryConsumptionInMb() float64 {
	return s.memoryConsumptionInMb
}

func (s Script) Hits() int64 {
	return s.hits
}

func (s Script) LastUsedAt() time.Time {
	return s.lastUsedAt
}

// ScriptSlots describes the utilization of the cache key table.
type ScriptSlots struct {
	used   int64
	max    int64
	wasted int64
}

func NewScriptSlots(used, max, wasted int64) ScriptSlots {
	return ScriptSlots{used: used, max: max, wasted: wasted}
}

func (s ScriptSlots) Used() int64 {
	return s.used
}

func (s ScriptSlots) Max() int64 {
	return s.max
}

func (s ScriptSlots) Wasted() int64 {
	return s.wasted
}

// FreeSlots never returns a negative count, even for inconsistent snapshots.
func (s ScriptSlots) FreeSlots() int64 {
	return max(s.max-s.used-s.wasted, 0)
}

// SortOrder selects the ordering applied by ScriptCollection.Sorted.
type SortOrder string

const (
	SortByHits     SortOrder = "hits"
	SortByMemory   SortOrder = "memory"
	SortByLastUsed SortOrder = "last_used"
	SortByPath     SortOrder = "path"
)

var ErrUnknownSortOrder = errors.New("unknown sort order")

// ParseSortOrder validates a user supplied order. The empty string keeps the
// enumeration order.
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(s); order {
	case "", SortByHits, SortByMemory, SortByLastUsed, SortByPath:
		return order, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownSortOrder, s)
}

// ScriptCollection is an immutable list of cached scripts together with
// the slot utilization of the cache.
type ScriptCollection struct {
	scripts []Script
	slots   ScriptSlots
}

func NewScriptCollection(scripts []Script, slots ScriptSlots) ScriptCollection {
	return ScriptCollection{
		scripts: slices.Clone(scripts),
		slots:   slots,
	}
}

func (c ScriptCollection) Count() int {
	return len(c.scripts)
}

func (c ScriptCollection) Slots() ScriptSlots {
	return c.slots
}

// All iterates the scripts in cache enumeration order. The sequence can be
// ranged over any number of times.
func (c ScriptCollection) All() iter.Seq[Script] {
	return func(yield func(Script) bool) {
		for _, s := range c.scripts {
			if !yield(s) {
				return
			}
		}
	}
}

// Scripts returns a copy of the underlying list.
func (c ScriptCollection) Scripts() []Script {
	return slices.Clone(c.scripts)
}

func (c ScriptCollection) TotalMemoryInMb() float64 {
	var total float64
	for _, s := range c.scripts {
		total += s.memoryConsumptionInMb
	}
	return total
}

// Sorted returns a new collection ordered by the given criterion. Numeric and
// time orders are descending, path order is ascending. Unknown orders keep
// the enumeration order.
func (c ScriptCollection) Sorted(order SortOrder) ScriptCollection {
	sorted := slices.Clone(c.scripts)
	var cmp func(a, b Script) int
	switch order {
	case SortByHits:
		cmp = func(a, b Script) int { return compareDesc(a.hits, b.hits) }
	case SortByMemory:
		cmp = func(a, b Script) int { return compareDesc(a.memoryConsumptionInMb, b.memoryConsumptionInMb) }
	case SortByLastUsed:
		cmp = func(a, b Script) int { return b.lastUsedAt.Compare(a.lastUsedAt) }
	case SortByPath:
		cmp = func(a, b Script) int { return strings.Compare(a.fullPath, b.fullPath) }
	default:
		return ScriptCollection{scripts: sorted, slots: c.slots}
	}
	slices.SortStableFunc(sorted, cmp)
	return ScriptCollection{scripts: sorted, slots: c.slots}
}

// Limit returns a collection holding at most n scripts. Slot figures are
// left untouched since they describe the whole cache.
func (c ScriptCollection) Limit(n int) ScriptCollection {
	if n < 0 || n >= len(c.scripts) {
		return c
	}
	return ScriptCollection{scripts: slices.Clone(c.scripts[:n]), slots: c.slots}
}

func compareDesc[T int64 | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

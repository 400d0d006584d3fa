package handlers

import (
	"time"

	"github.com/muandane/opcachestat/internal/bytecode"
)

type MemoryView struct {
	UsedInMb        float64 `json:"used_mb"`
	WastedInMb      float64 `json:"wasted_mb"`
	FreeInMb        float64 `json:"free_mb"`
	SizeInMb        float64 `json:"size_mb"`
	UsedInPercent   float64 `json:"used_percent"`
	WastedInPercent float64 `json:"wasted_percent"`
	FreeInPercent   float64 `json:"free_percent"`
	Full            bool    `json:"full"`
}

func newMemoryView(m bytecode.Memory) MemoryView {
	return MemoryView{
		UsedInMb:        m.UsedInMb(),
		WastedInMb:      m.WastedInMb(),
		FreeInMb:        m.FreeInMb(),
		SizeInMb:        m.SizeInMb(),
		UsedInPercent:   m.UsedInPercent(),
		WastedInPercent: m.WastedInPercent(),
		FreeInPercent:   m.FreeInPercent(),
		Full:            m.IsFull(),
	}
}

type StatisticsView struct {
	Hits             int64   `json:"hits"`
	Misses           int64   `json:"misses"`
	HitRateInPercent float64 `json:"hit_rate_percent"`
}

func newStatisticsView(s bytecode.Statistics) StatisticsView {
	return StatisticsView{
		Hits:             s.Hits(),
		Misses:           s.Misses(),
		HitRateInPercent: s.HitRateInPercent(),
	}
}

type SlotsView struct {
	Used   int64 `json:"used"`
	Max    int64 `json:"max"`
	Wasted int64 `json:"wasted"`
	Free   int64 `json:"free"`
}

func newSlotsView(s bytecode.ScriptSlots) SlotsView {
	return SlotsView{
		Used:   s.Used(),
		Max:    s.Max(),
		Wasted: s.Wasted(),
		Free:   s.FreeSlots(),
	}
}

type ScriptView struct {
	FullPath              string    `json:"full_path"`
	MemoryConsumptionInMb float64   `json:"memory_consumption_mb"`
	Hits                  int64     `json:"hits"`
	LastUsedAt            time.Time `json:"last_used_at"`
}

type ScriptsView struct {
	Count   int          `json:"count"`
	Slots   SlotsView    `json:"slots"`
	Scripts []ScriptView `json:"scripts"`
}

func newScriptsView(c bytecode.ScriptCollection) ScriptsView {
	scripts := make([]ScriptView, 0, c.Count())
	for s := range c.All() {
		scripts = append(scripts, ScriptView{
			FullPath:              s.FullPath(),
			MemoryConsumptionInMb: s.MemoryConsumptionInMb(),
			Hits:                  s.Hits(),
			LastUsedAt:            s.LastUsedAt(),
		})
	}
	return ScriptsView{
		Count:   c.Count(),
		Slots:   newSlotsView(c.Slots()),
		Scripts: scripts,
	}
}

// StatusView is the dashboard summary.
type StatusView struct {
	Enabled     bool           `json:"enabled"`
	Memory      MemoryView     `json:"memory"`
	Statistics  StatisticsView `json:"statistics"`
	Slots       SlotsView      `json:"slots"`
	ScriptCount int            `json:"script_count"`
}

func newStatusView(cache bytecode.Cache) StatusView {
	scripts := cache.Scripts()
	return StatusView{
		Enabled:     cache.IsEnabled(),
		Memory:      newMemoryView(cache.Memory()),
		Statistics:  newStatisticsView(cache.Statistics()),
		Slots:       newSlotsView(scripts.Slots()),
		ScriptCount: scripts.Count(),
	}
}

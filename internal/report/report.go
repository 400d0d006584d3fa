// Package report renders a human readable summary of the cache status.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/muandane/opcachestat/internal/bytecode"
)

type Options struct {
	Sort bytecode.SortOrder
	// Top limits the script table; negative prints all scripts.
	Top int
	// Now anchors relative times. Zero means time.Now().
	Now time.Time
}

func Write(w io.Writer, cache bytecode.Cache, opts Options) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if !cache.IsEnabled() {
		_, err := fmt.Fprintln(w, "opcache: disabled or unavailable")
		return err
	}

	memory := cache.Memory()
	stats := cache.Statistics()
	scripts := cache.Scripts()
	slots := scripts.Slots()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "opcache: enabled")
	fmt.Fprintf(tw, "memory used\t%s\t%.1f%%\n", mbToSize(memory.UsedInMb()), memory.UsedInPercent())
	fmt.Fprintf(tw, "memory wasted\t%s\t%.1f%%\n", mbToSize(memory.WastedInMb()), memory.WastedInPercent())
	fmt.Fprintf(tw, "memory free\t%s\t%.1f%%\n", mbToSize(memory.FreeInMb()), memory.FreeInPercent())
	fmt.Fprintf(tw, "memory size\t%s\t\n", mbToSize(memory.SizeInMb()))
	if memory.IsFull() {
		fmt.Fprintln(tw, "memory full\tyes\t")
	}
	fmt.Fprintf(tw, "hits\t%s\t\n", humanize.Comma(stats.Hits()))
	fmt.Fprintf(tw, "misses\t%s\t\n", humanize.Comma(stats.Misses()))
	fmt.Fprintf(tw, "hit rate\t%.2f%%\t\n", stats.HitRateInPercent())
	fmt.Fprintf(tw, "slots\t%s used / %s wasted / %s max\t\n",
		humanize.Comma(slots.Used()), humanize.Comma(slots.Wasted()), humanize.Comma(slots.Max()))
	if err := tw.Flush(); err != nil {
		return err
	}

	if scripts.Count() == 0 {
		return nil
	}
	if opts.Sort != "" {
		scripts = scripts.Sorted(opts.Sort)
	}
	listed := scripts.Limit(opts.Top)

	fmt.Fprintf(w, "\nscripts (%d of %d)\n", listed.Count(), scripts.Count())
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HITS\tMEMORY\tLAST USED\tPATH")
	for s := range listed.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			humanize.Comma(s.Hits()),
			mbToSize(s.MemoryConsumptionInMb()),
			humanize.RelTime(s.LastUsedAt(), now, "ago", "from now"),
			s.FullPath(),
		)
	}
	return tw.Flush()
}

func mbToSize(mb float64) string {
	if mb < 0 {
		return "-" + humanize.IBytes(uint64(-mb*1024*1024))
	}
	return humanize.IBytes(uint64(mb * 1024 * 1024))
}

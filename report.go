package ratelimit

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Report writes the recorded buckets as a fixed-width text table:
// bucket range in milliseconds, admitted calls, rejected calls and
// admitted calls over the trailing second.
func (h *LoadHarness) Report(w io.Writer) error {
	return WriteReport(w, h.Buckets())
}

// WriteReport writes the given buckets as a fixed-width text table.
func WriteReport(w io.Writer, stats []BucketStat) error {
	if _, err := fmt.Fprintf(w, "%-13s | %10s | %10s | %11s\n",
		"time slice", "admitted", "rejected", "rolling/sec"); err != nil {
		return fmt.Errorf("error writing report header: %w", err)
	}

	for _, s := range stats {
		_, err := fmt.Fprintf(w, "%05d-%05dms | %10d | %10d | %11d\n",
			s.From.Milliseconds(), s.To.Milliseconds(),
			s.Admitted, s.Rejected, s.RollingAdmitted,
		)
		if err != nil {
			return fmt.Errorf("error writing report row: %w", err)
		}
	}

	return nil
}

// RenderTable renders the given buckets as a boxed table
// with a totals footer, for interactive terminals.
func RenderTable(stats []BucketStat) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time slice", "Admitted", "Rejected", "Rolling/sec"})

	var admitted, rejected, peak uint64
	for _, s := range stats {
		t.AppendRow(table.Row{
			fmt.Sprintf("%05d-%05dms", s.From.Milliseconds(), s.To.Milliseconds()),
			s.Admitted,
			s.Rejected,
			s.RollingAdmitted,
		})
		admitted += s.Admitted
		rejected += s.Rejected
		if s.RollingAdmitted > peak {
			peak = s.RollingAdmitted
		}
	}

	t.AppendFooter(table.Row{
		"total",
		admitted,
		rejected,
		fmt.Sprintf("peak %d", peak),
	})

	return t.Render()
}

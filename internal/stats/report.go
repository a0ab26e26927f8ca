package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	rule      = "--------------------------------------------------------------------------------"
	maxOutput = 50
)

// WriteTo renders the report as text. Samples are thinned to an even spread
// when there are too many to read.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "RUNTIME REPORT\n%s\n", rule)
	fmt.Fprintf(&sb, "  Start:     %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(&sb, "  Duration:  %s\n\n", r.Elapsed().Round(time.Millisecond))

	if len(r.Phases) > 0 {
		fmt.Fprintf(&sb, "PHASES\n%s\n", rule)
		fmt.Fprintf(&sb, "%-16s %-14s %-12s %-12s\n", "Name", "Duration", "Ops", "Per op")
		for _, p := range r.Phases {
			fmt.Fprintf(&sb, "%-16s %-14s %-12s %-12s\n",
				p.Name,
				p.Duration.Round(time.Microsecond),
				humanize.Comma(int64(p.Operations)),
				p.PerOperation(),
			)
		}
		sb.WriteString("\n")
	}

	peak := r.Peak()
	fmt.Fprintf(&sb, "PEAK\n%s\n", rule)
	fmt.Fprintf(&sb, "  Heap Allocated:  %s\n", humanize.IBytes(peak.HeapAlloc))
	fmt.Fprintf(&sb, "  Heap System:     %s\n", humanize.IBytes(peak.HeapSys))
	fmt.Fprintf(&sb, "  Process RSS:     %s\n", humanize.IBytes(peak.RSS))
	fmt.Fprintf(&sb, "  CPU:             %.2f%%\n", peak.CPUPercent)
	fmt.Fprintf(&sb, "  Goroutines:      %d\n", peak.NumGoroutine)
	fmt.Fprintf(&sb, "  GC Cycles:       %d\n\n", peak.NumGC)

	fmt.Fprintf(&sb, "SAMPLES\n%s\n", rule)
	samples := thin(r.Samples, maxOutput)
	if len(samples) < len(r.Samples) {
		fmt.Fprintf(&sb, "  (showing %d of %d)\n", len(samples), len(r.Samples))
	}
	fmt.Fprintf(&sb, "%-12s %-14s %-14s %-10s\n", "Elapsed", "Heap Alloc", "Process RSS", "CPU %")
	for _, s := range samples {
		fmt.Fprintf(&sb, "%-12s %-14s %-14s %-10.1f\n",
			s.Elapsed.Round(time.Millisecond),
			humanize.IBytes(s.HeapAlloc),
			humanize.IBytes(s.RSS),
			s.CPUPercent,
		)
	}

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func thin(samples []Sample, limit int) []Sample {
	if len(samples) <= limit {
		return samples
	}
	out := make([]Sample, 0, limit)
	step := float64(len(samples)-1) / float64(limit-1)
	for i := range limit {
		out = append(out, samples[int(float64(i)*step)])
	}
	return out
}

// Package report renders aggregated simulation results as text.
package report

import (
	"fmt"
	"io"

	"github.com/tos-network/emission-sim/internal/stats"
)

// Write renders the per-pool statistics in configuration order. Reward
// figures are already in display coins.
func Write(w io.Writer, summaries []stats.PoolSummary) error {
	for _, s := range summaries {
		if _, err := fmt.Fprintf(w, "Pool %s\n", s.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "blocks: %g +/- %g\n", s.BlocksMean, s.BlocksErr); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "reward: %g +/- %g\n", s.RewardMean, s.RewardErr); err != nil {
			return err
		}
	}
	return nil
}

// WriteRun renders a header identifying the run followed by the
// per-pool statistics.
func WriteRun(w io.Writer, runID string, trials int, summaries []stats.PoolSummary) error {
	if _, err := fmt.Fprintf(w, "Run %s (%d trials)\n", runID, trials); err != nil {
		return err
	}
	return Write(w, summaries)
}

package history

import (
	"context"
	"fmt"

	"github.com/popsim-lab/popsim/sim"
)

// Collector buffers fitness passes as GenerationRecords until flushed.
// It implements sim.Observer.
type Collector struct {
	RunID   string
	pending []GenerationRecord
}

func NewCollector(runID string) *Collector {
	return &Collector{RunID: runID}
}

func (c *Collector) FitnessUpdated(pass sim.FitnessPass) {
	c.pending = append(c.pending, GenerationRecord{
		RunID:      c.RunID,
		Generation: pass.Generation,
		SubpopID:   pass.SubpopID,
		Variant:    pass.Variant.String(),
		Size:       pass.Summary.Count,
		Total:      pass.Summary.Total,
		Mean:       pass.Summary.Mean,
		StdDev:     pass.Summary.StdDev,
		Min:        pass.Summary.Min,
		Max:        pass.Summary.Max,
	})
}

func (c *Collector) GenerationSwapped(int, int64, bool) {}

// Pending is the number of buffered records.
func (c *Collector) Pending() int { return len(c.pending) }

// Flush writes every buffered record to store. Records that were written
// before a failure are not retried.
func (c *Collector) Flush(ctx context.Context, store Store) error {
	for i, rec := range c.pending {
		if err := store.SaveGeneration(ctx, rec); err != nil {
			c.pending = c.pending[i:]
			return fmt.Errorf("save generation %d of p%d: %w", rec.Generation, rec.SubpopID, err)
		}
	}
	c.pending = c.pending[:0]
	return nil
}

package sim

import "github.com/popsim-lab/popsim/sim/trace"

// TraceObserver records engine events into a SimulationTrace. Nothing is
// recorded unless the trace is enabled.
type TraceObserver struct {
	Trace *trace.SimulationTrace
}

func (o TraceObserver) FitnessUpdated(pass FitnessPass) {
	if !o.Trace.Enabled() {
		return
	}
	o.Trace.RecordPass(trace.FitnessRecord{
		SubpopID:            pass.SubpopID,
		Generation:          pass.Generation,
		Variant:             pass.Variant.String(),
		Size:                pass.Summary.Count,
		Total:               pass.Summary.Total,
		Mean:                pass.Summary.Mean,
		Min:                 pass.Summary.Min,
		Max:                 pass.Summary.Max,
		CallbackInvocations: pass.CallbackInvocations,
	})
}

func (o TraceObserver) GenerationSwapped(subpopID int, generation int64, regenerated bool) {
	if !o.Trace.Enabled() {
		return
	}
	o.Trace.RecordSwap(trace.SwapRecord{SubpopID: subpopID, Generation: generation, Regenerated: regenerated})
}

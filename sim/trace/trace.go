package trace

// TraceLevel controls the verbosity of tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelPasses captures every fitness pass and generation swap.
	TraceLevelPasses TraceLevel = "passes"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelPasses: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during a run.
type SimulationTrace struct {
	Config TraceConfig
	Passes []FitnessRecord
	Swaps  []SwapRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Passes: make([]FitnessRecord, 0),
		Swaps:  make([]SwapRecord, 0),
	}
}

// Enabled reports whether records should be collected.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelPasses
}

// RecordPass appends a fitness pass record.
func (st *SimulationTrace) RecordPass(record FitnessRecord) {
	st.Passes = append(st.Passes, record)
}

// RecordSwap appends a generation swap record.
func (st *SimulationTrace) RecordSwap(record SwapRecord) {
	st.Swaps = append(st.Swaps, record)
}

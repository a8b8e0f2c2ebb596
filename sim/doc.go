// Package sim provides the fitness and generation engine of popsim.
//
// # Reading Guide
//
// Start with these three files:
//   - fitness.go: per-individual fitness from two ordered mutation lists,
//     and the evaluation variant chosen once per pass
//   - subpopulation.go: the double-buffered parent/child generations, the
//     fitness cache and the sampling tables built from it
//   - callback.go: the contract between the engine and scripted fitness
//     callbacks
//
// # Architecture
//
// The sim package owns the core types; supporting code lives in
// sub-packages:
//   - sim/reproduction/: a reference reproduction step that fills child
//     generations through the parent draw operations
//   - sim/history/: per-generation fitness summary storage (memory, SQLite)
//   - sim/metrics/: Prometheus instrumentation of fitness passes
//   - sim/trace/: in-memory record of fitness passes and swaps
//
// Errors returned from this package wrap one of ErrConfiguration,
// ErrComputation, ErrCallbackContract or ErrUsage. None is recoverable.
package sim

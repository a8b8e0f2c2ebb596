package sim

// FitnessPass reports one completed UpdateFitness call.
type FitnessPass struct {
	SubpopID   int
	Generation int64
	Variant    FitnessVariant
	Summary    FitnessSummary

	// FemaleTotal and MaleTotal are the stratum totals of a sexual
	// subpopulation; both are 0 otherwise.
	FemaleTotal float64
	MaleTotal   float64

	CallbackInvocations int
}

// Observer receives engine events. Implementations must not mutate the
// subpopulation they are notified about.
type Observer interface {
	FitnessUpdated(pass FitnessPass)
	GenerationSwapped(subpopID int, generation int64, regenerated bool)
}

// MultiObserver fans events out to every member in order.
type MultiObserver []Observer

func (m MultiObserver) FitnessUpdated(pass FitnessPass) {
	for _, o := range m {
		o.FitnessUpdated(pass)
	}
}

func (m MultiObserver) GenerationSwapped(subpopID int, generation int64, regenerated bool) {
	for _, o := range m {
		o.GenerationSwapped(subpopID, generation, regenerated)
	}
}

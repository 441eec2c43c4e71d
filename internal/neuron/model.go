package neuron

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Model computes the next membrane potential of a neuron. Implementations
// must be deterministic, pure functions of their inputs; tick and lastFire
// are the neuron's local tick counter and the tick it last fired at.
type Model func(tick, lastFire int, vRest, vMem, tau float64, contributions []float64) float64

// LIF is the leaky integrate-and-fire update: the membrane decays
// exponentially toward vRest since the last firing, then integrates the sum
// of this tick's weighted contributions.
func LIF(tick, lastFire int, vRest, vMem, tau float64, contributions []float64) float64 {
	k := -float64(tick-lastFire) / tau
	return vRest + (vMem-vRest)*math.Exp(k) + floats.Sum(contributions)
}

package simulation

import (
	"math"
	"math/rand/v2"
)

// noiseFactor scales noise level into a fraction of the range width.
const noiseFactor = 0.05

// Generate draws one value for a sensor.
//
// The base value is uniform in [r.Min, r.Max]. With noise > 0 a perturbation
// uniform in ±noise·0.05·(max−min) is added. The result is rounded to one
// decimal place and kept inside [min−margin, max+margin].
//
// Generate is deterministic for a seeded rng. The rng is not safe for
// concurrent use; callers serialise access.
func Generate(rng *rand.Rand, r SensorRange, noise float64) float64 {
	width := r.Max - r.Min
	v := r.Min + rng.Float64()*width

	margin := 0.0
	if noise > 0 {
		margin = noise * noiseFactor * width
		v += (rng.Float64()*2 - 1) * margin
	}

	v = math.Round(v*10) / 10

	lo, hi := r.Min-margin, r.Max+margin
	switch {
	case v < lo:
		v = lo
	case v > hi:
		v = hi
	}
	return v
}

// NoiseMargin returns the maximum perturbation for a range and noise level.
func NoiseMargin(r SensorRange, noise float64) float64 {
	if noise <= 0 {
		return 0
	}
	return noise * noiseFactor * (r.Max - r.Min)
}

// generateAll produces one value per sensor, in generation order.
func generateAll(rng *rand.Rand, s Settings) Values {
	out := make(Values, len(sensorOrder))
	for _, k := range sensorOrder {
		out[k] = Generate(rng, s.Ranges[k], s.NoiseLevel)
	}
	return out
}

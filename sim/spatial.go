package sim

import (
	"math"
	"math/rand"
)

// Spatial bounds are stored per axis; only the first Dimensionality axes of
// the owning population are meaningful.

func (s *Subpopulation) dims(op string) (int, error) {
	d := s.pop.Dimensionality
	if d == 0 {
		return 0, usageErrorf(op, "p%d: the simulation has no spatial dimensions", s.id)
	}
	return d, nil
}

func (s *Subpopulation) pointDims(op string, point []float64) (int, error) {
	d, err := s.dims(op)
	if err != nil {
		return 0, err
	}
	if len(point) < d {
		return 0, usageErrorf(op, "p%d: point has %d coordinates, dimensionality is %d", s.id, len(point), d)
	}
	return d, nil
}

// SpatialBounds returns the bounds as all minima followed by all maxima,
// e.g. (x0, y0, x1, y1) in two dimensions. It is empty without dimensions.
func (s *Subpopulation) SpatialBounds() []float64 {
	d := s.pop.Dimensionality
	out := make([]float64, 0, 2*d)
	out = append(out, s.boundsMin[:d]...)
	return append(out, s.boundsMax[:d]...)
}

// SetSpatialBounds takes exactly twice the dimensionality values laid out as
// in SpatialBounds; each minimum must be below its maximum.
func (s *Subpopulation) SetSpatialBounds(bounds []float64) error {
	const op = "SetSpatialBounds"
	d, err := s.dims(op)
	if err != nil {
		return err
	}
	if len(bounds) != 2*d {
		return configErrorf(op, "p%d: %d bound values given, dimensionality %d requires %d", s.id, len(bounds), d, 2*d)
	}
	for a := 0; a < d; a++ {
		if bounds[a] >= bounds[d+a] {
			return configErrorf(op, "p%d: axis %d minimum %v is not below maximum %v", s.id, a, bounds[a], bounds[d+a])
		}
	}
	for a := 0; a < d; a++ {
		s.boundsMin[a], s.boundsMax[a] = bounds[a], bounds[d+a]
	}
	return nil
}

// PointInBounds reports whether point lies within the bounds, inclusive.
func (s *Subpopulation) PointInBounds(point []float64) (bool, error) {
	d, err := s.pointDims("PointInBounds", point)
	if err != nil {
		return false, err
	}
	for a := 0; a < d; a++ {
		if point[a] < s.boundsMin[a] || point[a] > s.boundsMax[a] {
			return false, nil
		}
	}
	return true, nil
}

// PointReflected folds point back into the bounds by reflecting off each
// boundary until it lies inside.
func (s *Subpopulation) PointReflected(point []float64) ([]float64, error) {
	d, err := s.pointDims("PointReflected", point)
	if err != nil {
		return nil, err
	}
	out := append([]float64(nil), point[:d]...)
	for a := 0; a < d; a++ {
		lo, hi := s.boundsMin[a], s.boundsMax[a]
		x := out[a]
		if math.IsInf(x, 0) {
			return nil, configErrorf("PointReflected", "p%d: coordinate %d is infinite", s.id, a)
		}
		if x < lo || x > hi {
			// Repeated reflection is periodic with period 2*(hi-lo).
			span := hi - lo
			x = math.Mod(x-lo, 2*span)
			if x < 0 {
				x += 2 * span
			}
			if x > span {
				x = 2*span - x
			}
			x += lo
		}
		out[a] = x
	}
	return out, nil
}

// PointStopped clamps point to the bounds.
func (s *Subpopulation) PointStopped(point []float64) ([]float64, error) {
	d, err := s.pointDims("PointStopped", point)
	if err != nil {
		return nil, err
	}
	out := append([]float64(nil), point[:d]...)
	for a := 0; a < d; a++ {
		out[a] = min(max(out[a], s.boundsMin[a]), s.boundsMax[a])
	}
	return out, nil
}

// PointUniform draws a point uniformly within the bounds.
func (s *Subpopulation) PointUniform(rng *rand.Rand) ([]float64, error) {
	d, err := s.dims("PointUniform")
	if err != nil {
		return nil, err
	}
	out := make([]float64, d)
	for a := range out {
		out[a] = rng.Float64()*(s.boundsMax[a]-s.boundsMin[a]) + s.boundsMin[a]
	}
	return out, nil
}

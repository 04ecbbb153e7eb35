// Package chlorine estimates free chlorine from pH and ORP readings.
package chlorine

import "math"

// Input bounds.
const (
	minPH = 6.5
	maxPH = 8.0

	// Below minORP no free chlorine is reported; above maxORP the estimate saturates.
	minORP = 400.0
	maxORP = 950.0

	saturatedPPM = 5.0
)

// point is one (ppm, mV) sample of a reference curve.
type point struct {
	ppm float64
	mv  float64
}

// curve is the ORP response at a fixed pH, ordered by ppm.
type curve struct {
	ph     float64
	points []point
}

// referenceCurves are ordered by pH.
var referenceCurves = []curve{
	{7.0, []point{{0.5, 625}, {1, 715}, {2, 805}, {3, 858}, {4, 896}}},
	{7.2, []point{{0.5, 618}, {1, 705}, {2, 792}, {3, 843}, {4, 880}}},
	{7.4, []point{{0.5, 611}, {1, 695}, {2, 779}, {3, 829}, {4, 864}}},
	{7.6, []point{{0.5, 604}, {1, 685}, {2, 766}, {3, 814}, {4, 848}}},
	{7.8, []point{{0.5, 597}, {1, 675}, {2, 753}, {3, 799}, {4, 832}}},
}

// EstimatePPM returns the free chlorine concentration (ppm) implied by ph and orp (mV),
// rounded to one decimal.
//
// pH is clamped to [6.5, 8.0] and the nearest reference curve is used (ties go
// to the lower pH). A zero or NaN input yields 0.
func EstimatePPM(ph, orp float64) float64 {
	if ph == 0 || orp == 0 || math.IsNaN(ph) || math.IsNaN(orp) {
		return 0
	}
	if orp < minORP {
		return 0
	}
	if orp > maxORP {
		return saturatedPPM
	}

	c := nearestCurve(math.Max(minPH, math.Min(maxPH, ph)))

	first := c.points[0]
	if orp < first.mv {
		return round1(orp / first.mv * first.ppm)
	}

	for i := 0; i < len(c.points)-1; i++ {
		p1, p2 := c.points[i], c.points[i+1]
		if orp >= p1.mv && orp <= p2.mv {
			fraction := (orp - p1.mv) / (p2.mv - p1.mv)
			return round1(p1.ppm + fraction*(p2.ppm-p1.ppm))
		}
	}

	return c.points[len(c.points)-1].ppm
}

// nearestCurve returns the reference curve closest to ph.
func nearestCurve(ph float64) curve {
	best := referenceCurves[0]
	for _, c := range referenceCurves[1:] {
		if math.Abs(c.ph-ph) < math.Abs(best.ph-ph) {
			best = c
		}
	}
	return best
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

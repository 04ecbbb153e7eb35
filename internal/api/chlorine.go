package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/iotnatural/poolwatch-core/internal/chlorine"
)

// chlorineResponse is the response body for GET /chlorine-estimate.
type chlorineResponse struct {
	PH  float64 `json:"ph"`
	ORP float64 `json:"orp"`
	PPM float64 `json:"ppm"`
}

// handleChlorineEstimate estimates free chlorine from the ph and orp query parameters.
func (s *Server) handleChlorineEstimate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	ph, ok := parseFinite(query.Get("ph"))
	if !ok {
		writeBadRequest(w, "ph: must be a finite number")
		return
	}
	orp, ok := parseFinite(query.Get("orp"))
	if !ok {
		writeBadRequest(w, "orp: must be a finite number")
		return
	}

	writeJSON(w, http.StatusOK, chlorineResponse{
		PH:  ph,
		ORP: orp,
		PPM: chlorine.EstimatePPM(ph, orp),
	})
}

// parseFinite parses s as a float, rejecting NaN and infinities.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

package handlers

import (
	"log"
	"net/http"
	"time"

	"gas-route-service/internal/api/dto"
	"gas-route-service/internal/ports"
)

type StopHandler struct {
	Repo ports.PlanRepository
}

// List returns all stops known to the repository.
func (h *StopHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stops, err := h.Repo.ListStops(r.Context())
	if err != nil {
		log.Printf("list stops failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListStopResponse{Stops: make([]dto.StopResponse, 0, len(stops))}
	for _, s := range stops {
		sr := dto.StopResponse{
			StopID:         s.StopID,
			Lat:            s.Coord.Lat,
			Lon:            s.Coord.Lon,
			Demand:         s.Demand,
			ServiceSeconds: int64(s.ServiceDuration / time.Second),
			Priority:       string(s.Priority),
			Status:         string(s.Status),
			Zone:           string(s.Zone),
		}
		if s.Window != nil {
			earliest, latest := s.Window.Earliest, s.Window.Latest
			sr.Earliest, sr.Latest = &earliest, &latest
		}
		res.Stops = append(res.Stops, sr)
	}

	writeJSON(w, r, http.StatusOK, res)
}

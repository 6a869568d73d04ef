package webhook

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voicehooks/gateway/internal/codec"
	"github.com/voicehooks/gateway/internal/domain"
	"github.com/voicehooks/gateway/internal/server"
)

// ClockRequest is the /time input payload.
type ClockRequest struct {
	Location string `json:"location"`
}

// ClockResponse is the /time success payload.
type ClockResponse struct {
	Found       bool   `json:"found"`
	CurrentTime string `json:"current_time"`
	Timezone    string `json:"timezone"`
	UTCOffset   string `json:"utc_offset"`
	Location    string `json:"location"`
}

// clockTimeLayout renders a time the way a voice agent would say it,
// e.g. "03:04 PM on Monday, January 2, 2006".
const clockTimeLayout = "03:04 PM on Monday, January 2, 2006"

// Clock handles POST /time: geocode the place name, take the first match,
// and report its current local time.
func (h *Handler) Clock(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if !decode(w, r, &req) {
		return
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		codec.WriteError(w, domain.ErrInvalidInput("location is required"))
		return
	}

	place, err := h.geo.Lookup(r.Context(), location)
	if err != nil {
		server.AddError(r.Context(), err)
		if domain.IsNotFound(err) {
			writeMiss(w, timezoneNotFoundMessage(location))
			return
		}
		codec.WriteError(w, err)
		return
	}

	zone, err := time.LoadLocation(place.Timezone)
	if err != nil {
		// The provider named a zone this host's tz database doesn't know.
		server.AddError(r.Context(), err)
		writeMiss(w, timezoneNotFoundMessage(location))
		return
	}

	local := h.now().In(zone)
	writeJSON(w, ClockResponse{
		Found:       true,
		CurrentTime: local.Format(clockTimeLayout),
		Timezone:    place.Timezone,
		UTCOffset:   local.Format("-07:00"),
		Location:    place.Name,
	})
}

func timezoneNotFoundMessage(location string) string {
	return fmt.Sprintf("I couldn't find a timezone for %s. Try a major city name instead.", location)
}

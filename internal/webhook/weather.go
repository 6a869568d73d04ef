package webhook

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/voicehooks/gateway/internal/codec"
	"github.com/voicehooks/gateway/internal/domain"
	"github.com/voicehooks/gateway/internal/server"
)

// WeatherRequest is the /weather input payload.
type WeatherRequest struct {
	Location string `json:"location"`
}

// WeatherResponse is the /weather success payload. Location echoes the city
// name the provider resolved, which may differ from the caller's spelling.
// The numeric fields are always emitted: a freezing 0°C reading is data,
// not an absent value.
type WeatherResponse struct {
	Found       bool    `json:"found"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	Location    string  `json:"location"`
}

// Weather handles POST /weather: one current-conditions lookup in metric units.
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	var req WeatherRequest
	if !decode(w, r, &req) {
		return
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		codec.WriteError(w, domain.ErrInvalidInput("location is required"))
		return
	}

	cond, err := h.weather.Current(r.Context(), location)
	if err != nil {
		server.AddError(r.Context(), err)
		if domain.IsNotFound(err) {
			writeMiss(w, fmt.Sprintf("I couldn't find weather for %s. Try a nearby city name instead.", location))
			return
		}
		codec.WriteError(w, err)
		return
	}

	writeJSON(w, WeatherResponse{
		Found:       true,
		Temperature: cond.Temperature,
		Description: cond.Description,
		Humidity:    cond.Humidity,
		Location:    cond.City,
	})
}

// Package api serves one hearing session over HTTP as JSON.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otherjamesbrown/audiencia-cli/pkg/buildinfo"
)

// ServiceName is reported by /version.
const ServiceName = "audiencia"

// NewRouter wires every endpoint. Metrics are served from gatherer when it
// is non-nil.
func NewRouter(handler *Handler, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/records", handler.Records)
	mux.HandleFunc("GET /v1/records/{id}", handler.Record)
	mux.HandleFunc("POST /v1/records/{id}/text", handler.EditText)
	mux.HandleFunc("POST /v1/records/{id}/speaker", handler.ReassignSpeaker)
	mux.HandleFunc("POST /v1/records/{id}/note", handler.Annotate)
	mux.HandleFunc("POST /v1/records/{id}/mark", handler.ToggleMark)
	mux.HandleFunc("POST /v1/records/{id}/reviewed", handler.MarkReviewed)
	mux.HandleFunc("GET /v1/speakers", handler.Speakers)
	mux.HandleFunc("POST /v1/speakers/rename", handler.RenameSpeaker)
	mux.HandleFunc("GET /v1/search", handler.Search)
	mux.HandleFunc("GET /v1/filter", handler.Filter)
	mux.HandleFunc("GET /v1/history", handler.History)
	mux.HandleFunc("POST /v1/play/{id}", handler.Play)
	mux.HandleFunc("POST /v1/pause", handler.Pause)
	mux.HandleFunc("GET /v1/playback", handler.Playback)
	mux.HandleFunc("GET /v1/export", handler.Export)

	mux.HandleFunc("GET /version", buildinfo.Handler(ServiceName))
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

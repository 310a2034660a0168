package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/audiencia-cli/pkg/api"
	"github.com/otherjamesbrown/audiencia-cli/pkg/events"
	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/observability"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/playback"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/session"
)

// ServeCommandDeps holds the dependencies for the serve command.
type ServeCommandDeps struct {
	*HearingCommandDeps
	Listen func(network, address string) (net.Listener, error)
	// Ready is called with the bound address once the server accepts
	// connections.
	Ready func(addr string)
}

// DefaultServeDeps returns the default dependencies for production use.
func DefaultServeDeps() *ServeCommandDeps {
	return &ServeCommandDeps{
		HearingCommandDeps: DefaultHearingDeps(),
		Listen:             net.Listen,
	}
}

// Serve command flags.
var (
	serveListen string
)

// NewServeCommand creates the serve command.
func NewServeCommand(deps *ServeCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultServeDeps()
	}

	cmd := &cobra.Command{
		Use:   "serve <file|case>",
		Short: "Serve a hearing over an HTTP JSON API",
		Long: `Load a hearing and serve it over HTTP until interrupted.

Endpoints:
  GET  /v1/records                    All records
  GET  /v1/records/{id}               One record
  POST /v1/records/{id}/text          {"text": "..."}
  POST /v1/records/{id}/speaker       {"speaker": "..."}
  POST /v1/records/{id}/note          {"note": "..."}
  POST /v1/records/{id}/mark          Toggle the mark
  POST /v1/records/{id}/reviewed      {"reviewed": true}
  GET  /v1/speakers                   Registered speakers
  POST /v1/speakers/rename            {"old": "...", "new": "...", "role": "..."}
  GET  /v1/search?q=term              Matches with snippets
  GET  /v1/filter?speaker=&window=    Speaker lines with context
  GET  /v1/history                    Edit history, newest first
  POST /v1/play/{id}                  Play a record's segment, auto-stop at its end
  POST /v1/pause                      Stop playback
  GET  /v1/playback                   Player state and active record
  GET  /v1/export?format=             minute, json or yaml
  GET  /metrics                       Prometheus metrics
  GET  /version                       Build information

Edits are attributed to the X-Audiencia-User header, or the configured user.
When events are enabled, every change is published to Redis.

Examples:
  audiencia serve hearing.json
  audiencia serve 0001234-56.2024.5.02.0001 --listen :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd.ErrOrStderr(), deps, args[0])
		},
	}

	cmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")

	return cmd
}

func runServe(ctx context.Context, errOut io.Writer, deps *ServeCommandDeps, arg string) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}
	log := deps.logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)
	deps.Metrics = metrics
	if deps.Tracer == nil {
		deps.Tracer = observability.NewTracer()
	}

	var opts []session.Option
	if cfg.Events.Enabled {
		pub, err := events.NewPublisherFromConfig(ctx, events.Config{
			Address:       cfg.Events.Address,
			Password:      cfg.Events.Password,
			DB:            cfg.Events.DB,
			ChannelPrefix: cfg.Events.ChannelPrefix,
		}, log)
		if err != nil {
			log.Warn("Event publishing disabled", logging.Err(err))
		} else {
			defer pub.Close()
			opts = append(opts, session.WithNotifier(pub))
		}
	}

	h, err := openHearing(ctx, deps.HearingCommandDeps, arg, opts...)
	if err != nil {
		return err
	}

	duration := cfg.Serve.PlaybackDuration.Seconds()
	if duration <= 0 {
		duration = h.Session.Duration()
	}
	player := playback.NewController(playback.NewClock(duration),
		playback.WithControllerLogger(log),
		playback.WithControllerMetrics(metrics))

	handler := api.NewHandler(h.Session, player, h.Case, cfg.GetUser())
	handler.Logger = log
	handler.Now = deps.now

	addr := cfg.Serve.ListenAddress
	if serveListen != "" {
		addr = serveListen
	}
	ln, err := deps.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           api.NewRouter(handler, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	bound := ln.Addr().String()
	log.Info("Serving hearing",
		logging.F("address", bound),
		logging.F("session_id", h.Session.ID()),
		logging.F("records", h.Session.Len()))
	fmt.Fprintf(errOut, "Serving %d records on http://%s\n", h.Session.Len(), bound)
	if deps.Ready != nil {
		deps.Ready(bound)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Serve.ShutdownTimeout)
	defer cancel()
	_ = player.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped", logging.F("pending_changes", h.Session.PendingChanges()))
	return nil
}

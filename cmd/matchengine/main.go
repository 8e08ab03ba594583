// Command matchengine wires together MatchCore, VenueBook, the venue feed,
// and the matchserver TCP front end into one running process. Adapted from
// the teacher's cmd/main.go: signal.NotifyContext for graceful shutdown,
// the same engine+server construction order, generalized to this repo's
// tomb-supervised components and config-driven wiring.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/raventid/matchcore/internal/config"
	"github.com/raventid/matchcore/internal/feed"
	"github.com/raventid/matchcore/internal/matchcore"
	"github.com/raventid/matchcore/internal/matchserver"
	"github.com/raventid/matchcore/internal/metrics"
	"github.com/raventid/matchcore/internal/venuebook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to matchengine config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	configureLogging(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	tb, ctx := tomb.WithContext(ctx)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	core := matchcore.New(matchcore.WithReporter(collector))
	book := venuebook.New(cfg.Venue.Symbol)

	venueFeed := feed.New(cfg.Venue.WebsocketURL, book, cfg.Venue.ReconnectWait)
	venueFeed.Reporter = collector

	srv := matchserver.New(cfg.Server.Address, core, cfg.Server.WorkerPoolSize, matchserver.WithMetrics(collector))

	tb.Go(func() error { return venueFeed.Run(tb) })
	tb.Go(func() error { return srv.Run(tb) })
	tb.Go(func() error { return serveMetrics(tb, cfg.Server.MetricsAddress, registry) })

	log.Info().
		Str("server_address", cfg.Server.Address).
		Str("metrics_address", cfg.Server.MetricsAddress).
		Str("venue_symbol", cfg.Venue.Symbol).
		Msg("matchengine starting")

	<-ctx.Done()
	tb.Kill(nil)
	if err := tb.Wait(); err != nil {
		log.Error().Err(err).Msg("matchengine exited with error")
	}
}

func configureLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func serveMetrics(t *tomb.Tomb, address string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(gatherer))
	httpSrv := &http.Server{Addr: address, Handler: mux}

	go func() {
		<-t.Dying()
		httpSrv.Close()
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

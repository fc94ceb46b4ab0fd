// Command server runs the matching engine's TCP front door (spec §6.1):
// the Engine Registry, the Event Multiplexer, a Prometheus metrics
// endpoint, and the transport.Server that exercises the Engine surface on
// the wire.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/kryptic-exchange/matchcore/internal/domain"
	"github.com/kryptic-exchange/matchcore/internal/engine"
	"github.com/kryptic-exchange/matchcore/internal/events"
	"github.com/kryptic-exchange/matchcore/internal/idgen"
	"github.com/kryptic-exchange/matchcore/internal/metrics"
	"github.com/kryptic-exchange/matchcore/internal/transport"
)

func main() {
	address := flag.String("address", "0.0.0.0", "address to bind the TCP transport to")
	port := flag.Int("port", 9001, "port for the TCP transport")
	metricsAddr := flag.String("metrics-address", ":9090", "address for the Prometheus /metrics endpoint")
	queueCapacity := flag.Int("queue-capacity", 1024, "per-subscriber event queue capacity")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	mux := events.New(*queueCapacity, collector)
	reg := engine.NewRegistry(domain.SystemClock{}, idgen.New(), mux, collector)

	metricsServer := &http.Server{
		Addr:              *metricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("address", *metricsAddr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown error")
		}
	}()

	srv := transport.NewServer(*address, *port, reg)
	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("transport server error")
		}
	}()

	<-ctx.Done()
}

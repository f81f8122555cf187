// Package main is the entry point for the pinmap terminal client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/onnwee/pinmap/internal/annotation"
	"github.com/onnwee/pinmap/internal/auth"
	"github.com/onnwee/pinmap/internal/config"
	"github.com/onnwee/pinmap/internal/favorite"
	"github.com/onnwee/pinmap/internal/geo"
	"github.com/onnwee/pinmap/internal/logging"
	"github.com/onnwee/pinmap/internal/metrics"
	"github.com/onnwee/pinmap/internal/pointapi"
	"github.com/onnwee/pinmap/internal/session"
	"github.com/onnwee/pinmap/internal/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Pinmap Client")
		fmt.Println()
		fmt.Println("Usage: pinmap [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Tracing provider; a disabled config yields a no-op provider.
	provider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "pinmap",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	m := metrics.NewMetrics()
	registry := prometheus.NewRegistry()
	if err := m.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("starting metrics listener", "addr", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener error", "error", err)
			}
		}()
	}

	authSession := auth.NewSession(cfg.Token, func() {
		logger.Info("logged out")
	})

	// Transport chain: request id -> logging -> otel instrumentation.
	transport := logging.RequestIDTransport(
		logging.LoggingTransport(logger, otelhttp.NewTransport(http.DefaultTransport)))
	client, err := pointapi.NewClient(pointapi.Config{
		BaseURL: cfg.APIBaseURL,
		HTTPClient: &http.Client{
			Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
			Transport: transport,
		},
		Metrics: m,
	})
	if err != nil {
		logger.Error("failed to create API client", "error", err)
		os.Exit(1)
	}

	terminal := newTerminal(os.Stdin, os.Stdout)

	controller, err := session.NewController(session.Config{
		Auth:        authSession,
		Annotations: annotation.NewStore(client),
		Favorites:   favorite.NewStore(client),
		Viewport:    terminal,
		Notifier:    terminal,
		Confirmer:   terminal,
		Metrics:     m,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to create controller", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var resolver geo.Resolver
	if cfg.HasCenter() {
		resolver = geo.FixedResolver{Point: geo.Point{Lat: cfg.CenterLat, Lng: cfg.CenterLng}}
	}
	controller.Startup(ctx, resolver)

	runLoop(ctx, controller, authSession, terminal)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics listener forced to shutdown", "error", err)
		}
	}

	logger.Info("client stopped")
}

// runLoop reads commands until EOF, quit, or signal cancellation.
func runLoop(ctx context.Context, controller *session.Controller, authSession *auth.Session, terminal *terminal) {
	terminal.prompt(controller.Session())

	for {
		if ctx.Err() != nil {
			return
		}
		line, ok := terminal.readLine()
		if !ok {
			return
		}
		if line == "" {
			terminal.prompt(controller.Session())
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "quit", "exit":
			return

		case "help":
			terminal.help()

		case "click":
			position, err := parsePosition(rest)
			if err != nil {
				terminal.Notify(err.Error())
				break
			}
			controller.MapClicked(position)

		case "open":
			id, err := parseID(rest)
			if err != nil {
				terminal.Notify(err.Error())
				break
			}
			if err := controller.MarkerClicked(id); err != nil {
				terminal.Notify(err.Error())
			}

		case "draft":
			if err := controller.SetDraft(rest); err != nil {
				terminal.Notify(err.Error())
			}

		case "edit":
			if err := controller.BeginInlineEdit(); err != nil {
				terminal.Notify(err.Error())
			}

		case "blur":
			if err := controller.EndInlineEdit(); err != nil {
				terminal.Notify(err.Error())
			}

		case "save":
			if err := controller.Submit(ctx); err != nil {
				terminal.Notify(err.Error())
			}

		case "fav":
			if err := controller.ToggleFavorite(ctx); err != nil {
				terminal.Notify(err.Error())
			}

		case "del":
			if err := controller.RequestDelete(ctx); err != nil {
				terminal.Notify(err.Error())
			}

		case "close":
			controller.Close(ctx)

		case "favs":
			terminal.renderFavorites(controller.OpenFavorites(ctx))

		case "goto":
			id, err := parseID(rest)
			if err != nil {
				terminal.Notify(err.Error())
				break
			}
			if err := controller.SelectFavorite(id); err != nil {
				terminal.Notify(err.Error())
			}

		case "unfav":
			id, err := parseID(rest)
			if err != nil {
				terminal.Notify(err.Error())
				break
			}
			if err := controller.RemoveFavorite(ctx, id); err != nil {
				terminal.Notify(err.Error())
			}

		case "points":
			terminal.RenderMarkers(terminal.markers)

		case "logout":
			authSession.Logout()

		default:
			terminal.Notify("unknown command: " + cmd + " (try help)")
		}

		terminal.prompt(controller.Session())
	}
}

func parsePosition(args string) (geo.Point, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return geo.Point{}, fmt.Errorf("usage: click <lat> <lng>")
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude %q", fields[0])
	}
	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude %q", fields[1])
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}

func parseID(args string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", strings.TrimSpace(args))
	}
	return id, nil
}

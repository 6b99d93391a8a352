package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/PetoAdam/homenavi/weather-app/internal/app"
	"github.com/PetoAdam/homenavi/weather-app/internal/config"
	"github.com/PetoAdam/homenavi/weather-app/internal/observability"
	"github.com/PetoAdam/homenavi/weather-app/internal/search"
	"github.com/PetoAdam/homenavi/weather-app/internal/unsplash"
	"github.com/PetoAdam/homenavi/weather-app/internal/yr"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogging(cfg.LogLevel, cfg.LogFormat).With("session", uuid.NewString())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, tracer, err := observability.SetupTracing(ctx, "weather-app", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	obs := &observability.Instruments{Tracer: tracer, Metrics: observability.NewMetrics(reg)}
	defer func() {
		if err := observability.WriteTextfile(cfg.MetricsTextfile, reg); err != nil {
			logger.Warn("metrics textfile not written", "error", err)
		}
	}()

	favorites, err := config.LoadFavorites(cfg.FavoritesFile)
	if err != nil {
		logger.Error("favorites load failed", "file", cfg.FavoritesFile, "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	weather := yr.New(cfg.YRBaseURL,
		yr.WithHTTPClient(httpClient),
		yr.WithExcludedCategory(cfg.ExcludedCategory),
		yr.WithInstruments(obs),
	)
	photos := unsplash.New(cfg.UnsplashBaseURL, cfg.UnsplashAccessKey,
		unsplash.WithHTTPClient(httpClient),
		unsplash.WithKeyword(cfg.PhotoKeyword),
		unsplash.WithPerPage(cfg.PhotoPerPage),
		unsplash.WithInstruments(obs),
	)
	if cfg.UnsplashAccessKey == "" {
		logger.Warn("UNSPLASH_ACCESS_KEY not set, city photos disabled")
	}

	u := &ui{ctx: ctx, logger: logger, out: os.Stdout}
	u.sess = app.NewSession(weather, photos,
		app.WithFavorites(favorites),
		app.WithInstruments(obs),
		app.WithLogger(logger),
		app.WithOnChange(func(app.State) { u.drawState(u.sess.Snapshot()) }),
	)
	u.sugg = search.NewSuggester(ctx, weather,
		search.WithDebounce(cfg.SearchDebounce),
		search.WithMinQuery(cfg.SearchMinQuery),
		search.WithInstruments(obs),
		search.WithLogger(logger),
		search.WithOnChange(u.drawSuggestions),
	)

	logger.Info("weather-app started", "yr", cfg.YRBaseURL, "favorites", len(favorites))
	u.printf("%s", helpText)
	if cfg.DefaultCity.ID != "" {
		city := cfg.DefaultCity
		u.goSelect(func(ctx context.Context) { u.sess.Select(ctx, city) })
	}

	readLoop(ctx, u, os.Stdin)

	u.sugg.Reset()
	u.wait()
	stop()
	logger.Info("shutting down")
}

// readLoop feeds lines from r to u until :quit, EOF or ctx is done.
func readLoop(ctx context.Context, u *ui, r io.Reader) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			u.logger.Warn("input read failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, err := parseCommand(line)
			if err != nil {
				u.printf("%v\n", err)
				continue
			}
			if !u.handle(cmd) {
				return
			}
		}
	}
}

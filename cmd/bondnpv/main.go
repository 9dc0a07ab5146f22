package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/meenmo/qlgo/internal/config"
	"github.com/meenmo/qlgo/internal/logger"
	"github.com/meenmo/qlgo/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bondnpv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (optional; if set, ignores stdin)")
	linger := fs.Duration("linger", 0, "Keep serving metrics for this long after pricing")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				usage(stderr)
				return 2
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return writeError(stdout, fmt.Sprintf("invalid configuration: %v", err))
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Out: stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec := metrics.New("qlgo")
	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.MetricsAddr, rec, log)
		if err != nil {
			return writeError(stdout, err.Error())
		}
		defer func() {
			if *linger > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(*linger):
				}
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	inputBytes, err := readInput(stdin, path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}

	var input PricingInput
	if err := json.Unmarshal(inputBytes, &input); err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
	}

	p := pricer{cfg: cfg, log: log, rec: rec}
	output, err := p.price(ctx, input)
	if err != nil {
		log.Error().Err(err).Msg("pricing failed")
		return writeError(stdout, err.Error())
	}

	outputBytes, _ := json.Marshal(output)
	fmt.Fprintln(stdout, string(outputBytes))
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  bondnpv < input.json")
	fmt.Fprintln(w, "  bondnpv -input /path/to/input.json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read JSON input, price a fixed-rate bond on a flat, par-swap or stored curve,")
	fmt.Fprintln(w, "output JSON to stdout.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment: QLGO_LOG_LEVEL, QLGO_LOG_PRETTY, QLGO_QUOTES_DSN, QLGO_METRICS_ADDR,")
	fmt.Fprintln(w, "QLGO_SOLVER_TOLERANCE, QLGO_SOLVER_MAX_ITER, QLGO_SOLVER_FLOOR, QLGO_SOLVER_CEILING.")
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func writeError(stdout io.Writer, msg string) int {
	output := PricingOutput{Error: msg}
	outputBytes, _ := json.Marshal(output)
	fmt.Fprintln(stdout, string(outputBytes))
	return 1
}

func serveMetrics(addr string, rec *metrics.Recorder, log zerolog.Logger) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	if err := rec.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	log.Info().Str("addr", addr).Msg("serving metrics")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return srv, nil
}

// Command cadaref-zurich georeferences scanned cadastral mutation plans
// of the City of Zurich. It detects cartographic point symbols on the
// scanned pages, matches them against survey points, and writes the
// resulting transforms as world files plus ground control metadata.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brawer/cadaref-zurich/internal/config"
	"github.com/brawer/cadaref-zurich/internal/logging"
	"github.com/brawer/cadaref-zurich/internal/pipeline"
	"github.com/brawer/cadaref-zurich/internal/survey"
	"github.com/brawer/cadaref-zurich/internal/version"
)

func main() {
	rendered := flag.String("rendered", "", "directory with rendered scan pages, overrides config")
	surveyDir := flag.String("survey", "", "directory with survey data CSV files, overrides config")
	workdir := flag.String("workdir", "", "output directory, overrides config")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cadaref-zurich: %v\n", err)
		os.Exit(1)
	}
	if *rendered != "" {
		cfg.Paths.Rendered = *rendered
	}
	if *surveyDir != "" {
		cfg.Paths.Survey = *surveyDir
	}
	if *workdir != "" {
		cfg.Paths.Workdir = *workdir
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	slog.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("loading survey data", "dir", cfg.Paths.Survey)
	dataset, err := survey.Load(cfg.Paths.Survey)
	if err != nil {
		slog.Error("loading survey data failed", "err", err)
		os.Exit(1)
	}
	slog.Info("survey data loaded", "points", dataset.Index().Size())

	if err := pipeline.New(cfg, dataset).Run(ctx); err != nil {
		slog.Error("batch failed", "err", err)
		os.Exit(1)
	}
}

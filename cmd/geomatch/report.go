package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
	"github.com/couchcryptid/storm-data-geomatch/internal/report"
)

var reportOpts struct {
	eventsPath  string
	citiesPath  string
	outDir      string
	cityLimit   int
	workers     int
	h3Res       int
	continental bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write summary, city-count, and density artifacts for a CSV export",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		matcher, err := loadMatcher(reportOpts.citiesPath, reportOpts.cityLimit, domain.EngineAuto)
		if err != nil {
			return err
		}

		events, err := loadEvents(reportOpts.eventsPath, reportOpts.continental)
		if err != nil {
			return err
		}

		points := make([]geo.Point, len(events))
		for i, e := range events {
			points[i] = e.Geo
		}
		matches, err := matcher.MatchEventsParallel(cmd.Context(), points, reportOpts.workers)
		if err != nil {
			return err
		}

		cityCounts, err := report.CityCounts(events, matches)
		if err != nil {
			return err
		}
		density, err := report.DensityCells(events, reportOpts.h3Res)
		if err != nil {
			return err
		}

		artifacts := map[string]any{
			"summary.json":     report.Summarize(events),
			"city_counts.json": cityCounts,
			"density.json":     density,
		}
		for name, v := range artifacts {
			path := filepath.Join(reportOpts.outDir, name)
			if err := report.WriteArtifact(path, v); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", path)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOpts.eventsPath, "events", "", "StormEvents-details CSV export (required)")
	reportCmd.Flags().StringVar(&reportOpts.citiesPath, "cities", "", "uscities.csv candidate file (required)")
	reportCmd.Flags().StringVar(&reportOpts.outDir, "out-dir", "artifacts", "directory for JSON artifacts")
	reportCmd.Flags().IntVar(&reportOpts.cityLimit, "limit", 100, "number of top-population candidate cities")
	reportCmd.Flags().IntVar(&reportOpts.workers, "workers", 1, "parallel matching workers")
	reportCmd.Flags().IntVar(&reportOpts.h3Res, "h3-resolution", 4, "H3 resolution for density cells (0-15)")
	reportCmd.Flags().BoolVar(&reportOpts.continental, "continental-only", true, "drop events outside the continental US")
	_ = reportCmd.MarkFlagRequired("events")
	_ = reportCmd.MarkFlagRequired("cities")
	rootCmd.AddCommand(reportCmd)
}

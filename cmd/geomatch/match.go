package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-geomatch/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
	"github.com/couchcryptid/storm-data-geomatch/internal/report"
)

// matchChunk bounds how many events go to the matcher per call so the
// progress bar advances at a useful rate.
const matchChunk = 500

var matchOpts struct {
	eventsPath  string
	citiesPath  string
	outPath     string
	cityLimit   int
	workers     int
	index       string
	continental bool
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Attach the nearest candidate city to each event in a CSV export",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		matched, err := runMatch(cmd)
		if err != nil {
			return err
		}

		if matchOpts.outPath == "" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(matched)
		}
		if err := report.WriteArtifact(matchOpts.outPath, matched); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %d matched events to %s\n", len(matched), matchOpts.outPath)
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchOpts.eventsPath, "events", "", "StormEvents-details CSV export (required)")
	matchCmd.Flags().StringVar(&matchOpts.citiesPath, "cities", "", "uscities.csv candidate file (required)")
	matchCmd.Flags().StringVar(&matchOpts.outPath, "out", "", "output JSON path (default stdout)")
	matchCmd.Flags().IntVar(&matchOpts.cityLimit, "limit", 100, "number of top-population candidate cities")
	matchCmd.Flags().IntVar(&matchOpts.workers, "workers", runtime.NumCPU(), "parallel matching workers")
	matchCmd.Flags().StringVar(&matchOpts.index, "index", domain.EngineAuto, "matching engine: auto, brute, or kdtree")
	matchCmd.Flags().BoolVar(&matchOpts.continental, "continental-only", true, "drop events outside the continental US")
	_ = matchCmd.MarkFlagRequired("events")
	_ = matchCmd.MarkFlagRequired("cities")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command) ([]domain.StormEvent, error) {
	matcher, err := loadMatcher(matchOpts.citiesPath, matchOpts.cityLimit, matchOpts.index)
	if err != nil {
		return nil, err
	}

	events, err := loadEvents(matchOpts.eventsPath, matchOpts.continental)
	if err != nil {
		return nil, err
	}

	matches, err := matchEvents(cmd, matcher, events)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.StormEvent, len(events))
	for i, e := range events {
		matched[i] = domain.AttachNearestCity(e, matches[i])
	}
	return matched, nil
}

func loadEvents(path string, continentalOnly bool) ([]domain.StormEvent, error) {
	box := csvfile.ContinentalUS
	if !continentalOnly {
		box = csvfile.BoundingBox{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}
	}
	events, err := csvfile.LoadEvents(path, box)
	if err != nil {
		return nil, err
	}
	slog.Debug("events loaded", "path", path, "count", len(events))
	return events, nil
}

// matchEvents runs the matcher over events in chunks, showing progress on a
// terminal stderr.
func matchEvents(cmd *cobra.Command, matcher *domain.Matcher, events []domain.StormEvent) ([]domain.CityMatch, error) {
	points := make([]geo.Point, len(events))
	for i, e := range events {
		points[i] = e.Geo
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(points),
			progressbar.OptionSetDescription("Matching events"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	matches := make([]domain.CityMatch, 0, len(points))
	for start := 0; start < len(points); start += matchChunk {
		end := min(start+matchChunk, len(points))
		chunk, err := matcher.MatchEventsParallel(cmd.Context(), points[start:end], matchOpts.workers)
		if err != nil {
			return nil, fmt.Errorf("events %d-%d: %w", start, end-1, err)
		}
		matches = append(matches, chunk...)
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return matches, nil
}

// Command geomatch runs nearest-city analysis over NOAA StormEvents CSV
// exports without a Kafka deployment: match events against a candidate city
// set, aggregate report artifacts, inspect the candidates, or verify a
// previously produced output file.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-geomatch/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "geomatch",
	Short:   "Nearest-city matching for NOAA storm event data",
	Version: Version,
	Long: `
geomatch attaches the nearest top-population US city to severe-weather event
records. Events come from a StormEvents-details CSV export; candidate cities
come from a SimpleMaps-style uscities.csv.
`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadMatcher builds a matcher over the top cityLimit candidates from a
// cities CSV. Shared by every subcommand.
func loadMatcher(citiesPath string, cityLimit int, engine string) (*domain.Matcher, error) {
	cities, err := csvfile.LoadCities(citiesPath)
	if err != nil {
		return nil, err
	}
	candidates := domain.TopCities(cities, cityLimit)
	slog.Debug("candidate cities loaded", "path", citiesPath, "total", len(cities), "candidates", len(candidates))
	return domain.NewMatcher(candidates, domain.MatcherOptions{Engine: engine})
}

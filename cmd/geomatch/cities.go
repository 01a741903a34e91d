package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var citiesOpts struct {
	citiesPath string
	cityLimit  int
}

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Print the candidate city set used for matching",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		matcher, err := loadMatcher(citiesOpts.citiesPath, citiesOpts.cityLimit, "brute")
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matcher.Cities())
	},
}

func init() {
	citiesCmd.Flags().StringVar(&citiesOpts.citiesPath, "cities", "", "uscities.csv candidate file (required)")
	citiesCmd.Flags().IntVar(&citiesOpts.cityLimit, "limit", 100, "number of top-population candidate cities")
	_ = citiesCmd.MarkFlagRequired("cities")
	rootCmd.AddCommand(citiesCmd)
}

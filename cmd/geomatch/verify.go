package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
)

var verifyOpts struct {
	inputPath  string
	citiesPath string
	cityLimit  int
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute matches for a previous output file and cross-check them",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if code := runVerify(); code != 0 {
			return errors.New("verification failed")
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyOpts.inputPath, "input", "", "matched-events JSON produced by 'geomatch match' (required)")
	verifyCmd.Flags().StringVar(&verifyOpts.citiesPath, "cities", "", "uscities.csv candidate file (required)")
	verifyCmd.Flags().IntVar(&verifyOpts.cityLimit, "limit", 100, "candidate city count used by the original run")
	_ = verifyCmd.MarkFlagRequired("input")
	_ = verifyCmd.MarkFlagRequired("cities")
	rootCmd.AddCommand(verifyCmd)
}

// phase tracks pass/fail for one verification phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func runVerify() int {
	fmt.Println("=== Nearest-City Match Verification ===")
	fmt.Println()

	events, err := loadMatchedEvents(verifyOpts.inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load input: %v\n", err)
		return 1
	}

	matcher, err := loadMatcher(verifyOpts.citiesPath, verifyOpts.cityLimit, domain.EngineBrute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load candidates: %v\n", err)
		return 1
	}

	phases := []*phase{
		verifyCandidateSet(matcher),
		verifyIdentifiers(events),
		verifyAssignments(events, matcher),
		verifyEngineAgreement(events, matcher.Cities()),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d matched events, %d candidate cities\n", len(events), len(matcher.Cities()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll verifications passed.")
		return 0
	}
	fmt.Println("\nVerification FAILED.")
	return 1
}

func loadMatchedEvents(path string) ([]domain.StormEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var events []domain.StormEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.New("input contains no events")
	}
	return events, nil
}

// verifyCandidateSet checks the candidate cities are usable: within the
// requested limit, finite coordinates, positive populations.
func verifyCandidateSet(matcher *domain.Matcher) *phase {
	p := &phase{name: "Phase 1: Candidate Set"}

	cities := matcher.Cities()
	if len(cities) == 0 {
		p.errorf("candidate set is empty")
		return p
	}
	if len(cities) > verifyOpts.cityLimit {
		p.errorf("candidate set has %d cities, limit is %d", len(cities), verifyOpts.cityLimit)
	}

	for i, c := range cities {
		if c.Name == "" {
			p.errorf("candidate %d: empty name", i)
		}
		if !c.Geo.IsFinite() {
			p.errorf("candidate %d (%s): non-finite coordinates", i, c.Name)
		}
		if c.Population <= 0 {
			p.errorf("candidate %d (%s): population %d", i, c.Name, c.Population)
		}
		if i > 0 && c.Population > cities[i-1].Population {
			p.errorf("candidate %d (%s): population out of descending order", i, c.Name)
		}
	}
	return p
}

// verifyIdentifiers checks every event carries a well-formed deterministic ID.
func verifyIdentifiers(events []domain.StormEvent) *phase {
	p := &phase{name: "Phase 2: Event Identifiers"}

	seen := map[string]int{}
	for i, e := range events {
		if e.ID == "" {
			p.errorf("event %d: missing ID", i)
			continue
		}
		// A blank event type produces a bare hash ID with no slug prefix.
		if slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(e.EventType), " ", "-")); slug != "" {
			prefix := slug + "-"
			if !strings.HasPrefix(e.ID, prefix) {
				p.errorf("event %d: ID %q doesn't start with type prefix %q", i, e.ID, prefix)
			}
		}
		seen[e.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			p.errorf("ID %s appears %d times", id, n)
		}
	}
	return p
}

// verifyAssignments recomputes each event's nearest city with the reference
// engine and compares it to the stored assignment.
func verifyAssignments(events []domain.StormEvent, matcher *domain.Matcher) *phase {
	p := &phase{name: "Phase 3: Nearest-City Assignment"}

	for i, e := range events {
		match, err := matcher.Nearest(e.Geo)
		if err != nil {
			p.errorf("event %d (%s): %v", i, e.ID, err)
			continue
		}
		if e.NearestCity != match.Name || e.NearestCityState != match.State {
			p.errorf("event %d (%s): assigned %s, %s but nearest is %s, %s",
				i, e.ID, e.NearestCity, e.NearestCityState, match.Name, match.State)
			continue
		}
		if e.NearestCityPopulation != match.Population {
			p.errorf("event %d (%s): population %d, expected %d",
				i, e.ID, e.NearestCityPopulation, match.Population)
		}
		if math.Abs(e.NearestCityDistanceM-match.DistanceMeters) > 0.5 {
			p.errorf("event %d (%s): distance %.1fm, expected %.1fm",
				i, e.ID, e.NearestCityDistanceM, match.DistanceMeters)
		}
	}
	return p
}

// verifyEngineAgreement re-matches every event with both engines and checks
// they pick the same candidate.
func verifyEngineAgreement(events []domain.StormEvent, cities []domain.City) *phase {
	p := &phase{name: "Phase 4: Engine Agreement"}

	brute, err := domain.NewMatcher(cities, domain.MatcherOptions{Engine: domain.EngineBrute})
	if err != nil {
		p.errorf("build brute matcher: %v", err)
		return p
	}
	kdtree, err := domain.NewMatcher(cities, domain.MatcherOptions{Engine: domain.EngineKDTree})
	if err != nil {
		p.errorf("build kdtree matcher: %v", err)
		return p
	}

	for i, e := range events {
		bm, err := brute.Nearest(e.Geo)
		if err != nil {
			p.errorf("event %d (%s): brute: %v", i, e.ID, err)
			continue
		}
		km, err := kdtree.Nearest(e.Geo)
		if err != nil {
			p.errorf("event %d (%s): kdtree: %v", i, e.ID, err)
			continue
		}
		if bm.Name != km.Name || bm.State != km.State {
			p.errorf("event %d (%s): brute picked %s, %s; kdtree picked %s, %s",
				i, e.ID, bm.Name, bm.State, km.Name, km.State)
		}
	}
	return p
}

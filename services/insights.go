package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"unified-listings/models"
	"unified-listings/utils"
)

const topMakesLimit = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes analytics over stored listing summaries. Listings with a
// zero or missing price are left out of the price statistics.
func (s *InsightService) Generate(listings []*models.ListingSummary) *models.InsightReport {
	report := &models.InsightReport{
		BySource:        make(map[string]int),
		ListingsByState: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	makes := make(map[string]int)
	var total int64
	for _, l := range listings {
		report.BySource[l.Source]++
		if l.DealerState != "" {
			report.ListingsByState[strings.ToUpper(l.DealerState)]++
		}
		if l.Make != "" {
			makes[l.Make]++
		}

		if l.Price <= 0 {
			continue
		}
		report.PricedListings++
		total += l.Price
		if report.MostExpensive == nil || l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
			report.MostExpensive = l
		}
		if report.MinPrice == 0 || l.Price < report.MinPrice {
			report.MinPrice = l.Price
		}
	}

	if report.PricedListings > 0 {
		report.AveragePrice = round2(float64(total) / float64(report.PricedListings))
	}

	for mk, n := range makes {
		report.TopMakes = append(report.TopMakes, models.MakeCount{Make: mk, Count: n})
	}
	sort.Slice(report.TopMakes, func(i, j int) bool {
		if report.TopMakes[i].Count != report.TopMakes[j].Count {
			return report.TopMakes[i].Count > report.TopMakes[j].Count
		}
		return report.TopMakes[i].Make < report.TopMakes[j].Make
	})
	if len(report.TopMakes) > topMakesLimit {
		report.TopMakes = report.TopMakes[:topMakesLimit]
	}

	s.logger.Debug("[insights] %d listings, %d priced, %d makes",
		report.TotalListings, report.PricedListings, len(makes))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  UNIFIED LISTINGS INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings stored : \033[1m%d\033[0m\n", r.TotalListings)
	for _, src := range sortedKeys(r.BySource) {
		fmt.Fprintf(w, "  %-21s : \033[1m%d\033[0m\n", src, r.BySource[src])
	}
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Priced listings : \033[1m%d\033[0m\n", r.PricedListings)
		fmt.Fprintf(w, "  Average price   : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price   : \033[1;32m$%d\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price   : \033[1;32m$%d\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		l := r.MostExpensive
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(describe(l), 50))
		fmt.Fprintf(w, "  VIN    : %s (%s)\n", l.VIN, l.Source)
		fmt.Fprintf(w, "  Price  : \033[1;31m$%d\033[0m\n", l.Price)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Top %d Makes\033[0m\n", topMakesLimit)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopMakes) == 0 {
		fmt.Fprintf(w, "  No make data\n")
	} else {
		for i, mc := range r.TopMakes {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%d\033[0m\n", i+1, truncate(mc.Make, 38), mc.Count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Dealer State\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByState) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	} else {
		states := sortedKeys(r.ListingsByState)
		sort.SliceStable(states, func(i, j int) bool {
			return r.ListingsByState[states[i]] > r.ListingsByState[states[j]]
		})
		for _, st := range states {
			n := r.ListingsByState[st]
			bar := strings.Repeat("█", min(n, 40))
			fmt.Fprintf(w, "  %-10s %s (%d)\n", st, bar, n)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func describe(l *models.ListingSummary) string {
	if l.Heading != "" {
		return l.Heading
	}
	parts := make([]string, 0, 3)
	if l.Year > 0 {
		parts = append(parts, fmt.Sprint(l.Year))
	}
	for _, p := range []string{l.Make, l.Model} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

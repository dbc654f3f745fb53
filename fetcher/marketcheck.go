package fetcher

import (
	"context"
	"strconv"

	"unified-listings/models"
	"unified-listings/services"
)

// MarketcheckURL is the Marketcheck active car search endpoint.
const MarketcheckURL = "https://api.marketcheck.com/v2/search/car/active"

// MarketcheckFetcher pages through Marketcheck with start/rows offsets.
type MarketcheckFetcher struct {
	*BaseFetcher
	url    string
	apiKey string
}

func newMarketcheckFetcher(base *BaseFetcher, opts Options) *MarketcheckFetcher {
	url := opts.URL
	if url == "" {
		url = MarketcheckURL
	}
	return &MarketcheckFetcher{BaseFetcher: base, url: url, apiKey: opts.APIKey}
}

func (f *MarketcheckFetcher) Source() string { return services.SourceMarketcheck }

// Run fetches pages until a short or empty page, the record cap, or an
// upstream failure. A rows value in the base params overrides the page size.
func (f *MarketcheckFetcher) Run(ctx context.Context) (models.RunStats, error) {
	var total models.RunStats

	rows := f.pageSize
	if v, ok := f.baseParams["rows"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rows = n
		}
	}

	headers := map[string]string{"Accept": "application/json"}
	start := 0
	for {
		listings, err := f.fetchPage(ctx, f.Source(), f.url, headers, f.params(map[string]string{
			"rows":    strconv.Itoa(rows),
			"api_key": f.apiKey,
			"start":   strconv.Itoa(start),
		}))
		if err != nil {
			return total, err
		}
		if len(listings) == 0 {
			break
		}

		stats, err := f.InsertMany(ctx, listings)
		total.Add(stats)
		if err != nil {
			return total, err
		}
		f.logger.Info("[marketcheck] start=%d: %d inserted (%d total)", start, stats.Inserted, total.Inserted)

		if f.capReached(total.Inserted) || len(listings) < rows {
			break
		}
		start += len(listings)
		if f.maxRecords > 0 && start >= f.maxRecords {
			break
		}
	}
	return total, nil
}

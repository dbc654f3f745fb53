package fetcher

import (
	"context"
	"strconv"

	"unified-listings/models"
	"unified-listings/services"
)

// AutoDevURL is the Auto.dev listings endpoint.
const AutoDevURL = "https://api.auto.dev/listings"

// AutoDevFetcher pages through Auto.dev with page/limit parameters.
type AutoDevFetcher struct {
	*BaseFetcher
	url     string
	headers map[string]string
}

func newAutoDevFetcher(base *BaseFetcher, opts Options) *AutoDevFetcher {
	url := opts.URL
	if url == "" {
		url = AutoDevURL
	}
	return &AutoDevFetcher{
		BaseFetcher: base,
		url:         url,
		headers: map[string]string{
			"Authorization": "Bearer " + opts.APIKey,
			"Accept":        "application/json",
		},
	}
}

func (f *AutoDevFetcher) Source() string { return services.SourceAutoDev }

// Run fetches pages until a short or empty page, the record cap, or an
// upstream failure.
func (f *AutoDevFetcher) Run(ctx context.Context) (models.RunStats, error) {
	var total models.RunStats
	page := 1
	for {
		listings, err := f.fetchPage(ctx, f.Source(), f.url, f.headers, f.params(map[string]string{
			"limit": strconv.Itoa(f.pageSize),
			"page":  strconv.Itoa(page),
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
		f.logger.Info("[autodev] page %d: %d inserted (%d total)", page, stats.Inserted, total.Inserted)

		if f.capReached(total.Inserted) || len(listings) < f.pageSize {
			break
		}
		page++
		if f.maxRecords > 0 && page*f.pageSize >= f.maxRecords+f.pageSize {
			break
		}
	}
	return total, nil
}

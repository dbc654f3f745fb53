package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unified-listings/models"
	"unified-listings/services"
	"unified-listings/storage"
	"unified-listings/utils"
)

// Fetcher pages through one upstream source and writes every listing into
// the unified store.
type Fetcher interface {
	Source() string
	Run(ctx context.Context) (models.RunStats, error)
}

// Options configures a Fetcher.
type Options struct {
	Source     string
	APIKey     string
	BaseParams map[string]string
	PageSize   int
	// MaxRecords caps inserted records; 0 means no cap.
	MaxRecords int
	Delay      time.Duration
	Timeout    time.Duration
	Retries    int
	// URL overrides the source's default endpoint.
	URL    string
	Logger *utils.Logger
}

// Page-size ceilings imposed by the upstream APIs.
const (
	AutoDevMaxPageSize     = 500
	MarketcheckMaxPageSize = 50
)

// ClampPageSize reduces size to what source accepts.
func ClampPageSize(source string, size int, logger *utils.Logger) int {
	limit := 0
	switch source {
	case services.SourceAutoDev:
		limit = AutoDevMaxPageSize
	case services.SourceMarketcheck:
		limit = MarketcheckMaxPageSize
	}
	if limit > 0 && size > limit {
		if logger != nil {
			logger.Warn("[%s] page size capped at %d, reducing from %d", source, limit, size)
		}
		return limit
	}
	if size <= 0 {
		return 1
	}
	return size
}

// New builds the fetcher for opts.Source writing into writer.
func New(writer storage.RecordWriter, opts Options) (Fetcher, error) {
	if opts.Logger == nil {
		opts.Logger = utils.NewLogger()
	}
	normalize, err := services.NormalizerFor(opts.Source)
	if err != nil {
		return nil, err
	}
	opts.PageSize = ClampPageSize(opts.Source, opts.PageSize, opts.Logger)

	base := &BaseFetcher{
		writer:     writer,
		normalize:  normalize,
		logger:     opts.Logger,
		baseParams: opts.BaseParams,
		pageSize:   opts.PageSize,
		maxRecords: opts.MaxRecords,
		pacer:      utils.NewPacer(opts.Delay),
		vins:       utils.NewVINSet(),
		now:        time.Now,
		client: NewClient(opts.Timeout, &utils.RetryConfig{
			MaxRetries: opts.Retries,
			BaseDelay:  opts.Delay,
			Logger:     opts.Logger,
		}),
	}

	switch opts.Source {
	case services.SourceAutoDev:
		return newAutoDevFetcher(base, opts), nil
	default:
		return newMarketcheckFetcher(base, opts), nil
	}
}

// BaseFetcher holds the pieces shared by every source's pagination loop.
type BaseFetcher struct {
	writer     storage.RecordWriter
	normalize  services.Normalizer
	client     *Client
	logger     *utils.Logger
	baseParams map[string]string
	pageSize   int
	maxRecords int
	pacer      *utils.Pacer
	vins       *utils.VINSet
	now        func() time.Time
}

// InsertMany normalizes and upserts one page of listings, then commits so
// the page is durable before the next request.
func (f *BaseFetcher) InsertMany(ctx context.Context, listings []any) (models.RunStats, error) {
	stats := models.RunStats{Pages: 1}
	for _, item := range listings {
		stats.Seen++

		listing, _ := item.(map[string]any)
		fetchedAt := f.now().UTC().Format(time.RFC3339)
		rec := f.normalize(models.RawListing(listing), fetchedAt)
		if rec == nil {
			stats.SkippedNoVIN++
			continue
		}

		if !f.vins.Add(rec.String("vin")) {
			stats.RepeatedVINs++
		}

		ok, err := f.writer.Upsert(ctx, rec)
		if err != nil {
			return stats, err
		}
		if ok {
			stats.Inserted++
		} else {
			stats.Rejected++
		}
	}

	if err := f.writer.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (f *BaseFetcher) params(extra map[string]string) map[string]string {
	out := make(map[string]string, len(f.baseParams)+len(extra))
	for k, v := range f.baseParams {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (f *BaseFetcher) capReached(inserted int) bool {
	return f.maxRecords > 0 && inserted >= f.maxRecords
}

// stopsPage reports whether err ends pagination quietly instead of
// failing the run.
func stopsPage(err error) bool {
	return errors.Is(err, ErrUpstreamStatus) || errors.Is(err, ErrBadPayload)
}

// fetchPage requests one page and returns its listings. A nil slice with a
// nil error means pagination should stop.
func (f *BaseFetcher) fetchPage(ctx context.Context, source, url string, headers, params map[string]string) ([]any, error) {
	if err := f.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	payload, err := f.client.GetJSON(ctx, url, headers, params)
	if err != nil {
		if stopsPage(err) {
			f.logger.Error("[%s] request failed: %v", source, err)
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return payload.List(listKey(source)), nil
}

func listKey(source string) string {
	if source == services.SourceAutoDev {
		return "data"
	}
	return "listings"
}

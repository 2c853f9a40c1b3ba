package ttsclient

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/tts-data-client/tts"
	"github.com/jamesrr39/tts-data-client/ttsdal"
	"github.com/jamesrr39/tts-data-client/ttsframe"
)

type Options struct {
	// MaxFiles caps the number of data files fetched per query. 0 = no cap.
	MaxFiles int
	// MaxConcurrentFetches > 1 fetches independent files in parallel.
	MaxConcurrentFetches uint
	// ProgressListener observes the fetch pipeline. Defaults to a no-op.
	ProgressListener ProgressListener
	// BasePrefix overrides the tracking-the-sun key prefix. Defaults to
	// ttsdal.DefaultBasePrefix.
	BasePrefix string
}

// Client queries the tracking-the-sun data lake. Queries are stateless; the
// only state a Client carries is the resolver's partition-listing cache.
type Client struct {
	store    ttsdal.ObjStore
	resolver *ttsdal.PartitionResolver
	logger   *logpkg.Logger
	options  Options
}

func NewClient(store ttsdal.ObjStore, logger *logpkg.Logger, options Options) *Client {
	basePrefix := options.BasePrefix
	if basePrefix == "" {
		basePrefix = ttsdal.DefaultBasePrefix
	}

	return &Client{
		store:    store,
		resolver: ttsdal.NewPartitionResolver(store, basePrefix, logger),
		logger:   logger,
		options:  options,
	}
}

// Resolver exposes partition discovery (e.g. which states exist for a year).
func (c *Client) Resolver() *ttsdal.PartitionResolver {
	return c.resolver
}

// Query fetches the partitions selected by params, concatenates them, and
// narrows the rows through fieldFilters (combined with logical AND).
func (c *Client) Query(ctx context.Context, params tts.QueryParams, fieldFilters tts.FieldFilters) (*ttsframe.Frame, errorsx.Error) {
	err := fieldFilters.Validate()
	if err != nil {
		return nil, err
	}

	span := startSpanIfTracing(ctx, fmt.Sprintf("resolve partitions: %s", params))
	keys, err := c.resolver.ResolveDataFiles(ctx, params)
	endSpanIfTracing(ctx, span)
	if err != nil {
		return nil, err
	}

	if c.options.MaxFiles > 0 && len(keys) > c.options.MaxFiles {
		keys = keys[:c.options.MaxFiles]
	}

	c.progressListener().OnResolveDone(len(keys))

	frames, err := c.fetchFrames(ctx, keys)
	if err != nil {
		return nil, err
	}

	combined, err := ttsframe.ConcatFrames(frames)
	if err != nil {
		return nil, err
	}

	span = startSpanIfTracing(ctx, "apply field filters")
	filtered, err := ttsframe.ApplyFilters(combined, fieldFilters)
	endSpanIfTracing(ctx, span)
	if err != nil {
		if err == tts.ErrInvalidFilter {
			c.logger.Warn("invalid field filter in %q", fieldFilters)
		}
		return nil, err
	}

	c.progressListener().OnQueryDone(filtered.NumRows())

	return filtered, nil
}

// GetFields returns the column names for the given query, reading only the
// first available data file.
func (c *Client) GetFields(ctx context.Context, params tts.QueryParams) ([]string, errorsx.Error) {
	keys, err := c.resolver.ResolveDataFiles(ctx, params)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		frame, _, err := c.fetchFrame(ctx, key)
		if err != nil {
			return nil, err
		}

		if frame == nil {
			// object disappeared since listing, try the next one
			continue
		}

		return frame.ColumnNames(), nil
	}

	return nil, tts.ErrNoPartitionsFound
}

// CountRows returns the number of rows Query would return for the same
// arguments.
func (c *Client) CountRows(ctx context.Context, params tts.QueryParams, fieldFilters tts.FieldFilters) (int, errorsx.Error) {
	frame, err := c.Query(ctx, params, fieldFilters)
	if err != nil {
		return 0, err
	}

	return frame.NumRows(), nil
}

// WriteSummary writes a human-readable report for the given query: column
// names, row count and per-numeric-column statistics.
func (c *Client) WriteSummary(ctx context.Context, w io.Writer, params tts.QueryParams) errorsx.Error {
	frame, err := c.Query(ctx, params, nil)
	if err != nil {
		return err
	}

	_, err2 := fmt.Fprintf(w, "Query: %s\nFields: %s\nTotal rows: %d\n",
		params,
		strings.Join(frame.ColumnNames(), ", "),
		frame.NumRows(),
	)
	if err2 != nil {
		return errorsx.Wrap(err2)
	}

	for _, stats := range ttsframe.NumericColumnStats(frame) {
		_, err2 = fmt.Fprintf(w, "%s: count=%d, min=%s, max=%s, mean=%s\n",
			stats.ColumnName,
			stats.Count,
			formatStat(stats.Min),
			formatStat(stats.Max),
			formatStat(stats.Mean),
		)
		if err2 != nil {
			return errorsx.Wrap(err2)
		}
	}

	return nil
}

// PrintSummary is WriteSummary to stdout.
func (c *Client) PrintSummary(ctx context.Context, params tts.QueryParams) errorsx.Error {
	return c.WriteSummary(ctx, os.Stdout, params)
}

func (c *Client) progressListener() ProgressListener {
	if c.options.ProgressListener == nil {
		return noopProgressListener{}
	}

	return c.options.ProgressListener
}

func formatStat(val float64) string {
	return strconv.FormatFloat(val, 'g', -1, 64)
}

package ttsdal

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/tts-data-client/tts"
)

// PartitionResolver maps query parameters onto the storage keys that could
// hold matching rows. Listing results are cached for the resolver's lifetime,
// so repeated queries against the same prefix hit the store only once.
type PartitionResolver struct {
	store      ObjStore
	basePrefix string
	logger     *logpkg.Logger

	mu           *sync.RWMutex
	listingCache map[string][]ObjectInfo
}

func NewPartitionResolver(store ObjStore, basePrefix string, logger *logpkg.Logger) *PartitionResolver {
	return &PartitionResolver{
		store:        store,
		basePrefix:   strings.TrimSuffix(basePrefix, "/"),
		logger:       logger,
		mu:           new(sync.RWMutex),
		listingCache: make(map[string][]ObjectInfo),
	}
}

// BuildSearchPrefix builds the longest fixed key prefix the bound parameters
// allow. Prefix-building stops at the first unbound key in canonical order;
// keys bound after that gap are returned as post-filters to apply over the
// listing.
func (r *PartitionResolver) BuildSearchPrefix(params tts.QueryParams) (string, []tts.PartitionBinding) {
	segments := []string{r.basePrefix}
	var postFilters []tts.PartitionBinding

	prefixClosed := false
	for _, binding := range params.Bindings() {
		if binding.Value == "" {
			prefixClosed = true
			continue
		}

		if prefixClosed {
			postFilters = append(postFilters, binding)
			continue
		}

		segments = append(segments, binding.PathSegment())
	}

	return strings.Join(segments, "/") + "/", postFilters
}

// ResolveDataFiles returns the sorted keys of every parquet object matching
// the given parameters. Generation is deterministic and order-stable.
// Returns tts.ErrNoPartitionsFound when nothing matches after listing.
func (r *PartitionResolver) ResolveDataFiles(ctx context.Context, params tts.QueryParams) ([]string, errorsx.Error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	prefix, postFilters := r.BuildSearchPrefix(params)

	infos, err := r.listWithCache(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, ParquetFileSuffix) {
			continue
		}

		if !matchesPostFilters(info.Key, postFilters) {
			continue
		}

		keys = append(keys, info.Key)
	}

	sort.Strings(keys)

	if len(keys) == 0 {
		r.logger.Debug("no parquet files under prefix %q (post-filters: %v)", prefix, postFilters)
		return nil, tts.ErrNoPartitionsFound
	}

	return keys, nil
}

// DiscoverPartitionValues lists the distinct values present in the store for
// one partition key, within the partitions selected by params.
func (r *PartitionResolver) DiscoverPartitionValues(ctx context.Context, params tts.QueryParams, partitionKey string) ([]string, errorsx.Error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	prefix, postFilters := r.BuildSearchPrefix(params)

	infos, err := r.listWithCache(ctx, prefix)
	if err != nil {
		return nil, err
	}

	valueSet := make(map[string]struct{})
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, ParquetFileSuffix) {
			continue
		}

		if !matchesPostFilters(info.Key, postFilters) {
			continue
		}

		value, ok := partitionValueFromKey(info.Key, r.basePrefix, partitionKey)
		if !ok {
			continue
		}

		valueSet[value] = struct{}{}
	}

	var values []string
	for value := range valueSet {
		values = append(values, value)
	}
	sort.Strings(values)

	return values, nil
}

func (r *PartitionResolver) listWithCache(ctx context.Context, prefix string) ([]ObjectInfo, errorsx.Error) {
	r.mu.RLock()
	infos, ok := r.listingCache[prefix]
	r.mu.RUnlock()
	if ok {
		return infos, nil
	}

	infos, err := r.store.ListKeys(ctx, prefix)
	if err != nil {
		return nil, errorsx.Wrap(err, "prefix", prefix)
	}

	r.mu.Lock()
	r.listingCache[prefix] = infos
	r.mu.Unlock()

	r.logger.Debug("listed %d objects under prefix %q", len(infos), prefix)

	return infos, nil
}

func matchesPostFilters(key string, postFilters []tts.PartitionBinding) bool {
	for _, binding := range postFilters {
		if !strings.Contains(key, "/"+binding.PathSegment()+"/") {
			return false
		}
	}

	return true
}

// partitionValueFromKey extracts the value a key carries for one partition
// key. The year is the path segment directly under the base prefix; all other
// keys are hive-style key=value segments.
func partitionValueFromKey(key, basePrefix, partitionKey string) (string, bool) {
	relativeKey := strings.TrimPrefix(key, basePrefix+"/")

	segments := strings.Split(relativeKey, "/")
	if len(segments) < 2 {
		// just a file name, no partition segments
		return "", false
	}

	if partitionKey == tts.PartitionKeyYear {
		return segments[0], true
	}

	for _, segment := range segments[:len(segments)-1] {
		if strings.HasPrefix(segment, partitionKey+"=") {
			return strings.TrimPrefix(segment, partitionKey+"="), true
		}
	}

	return "", false
}

package ttsclient

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"

	snapshot "github.com/jamesrr39/go-snapshot-testing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/tts-data-client/tts"
	"github.com/jamesrr39/tts-data-client/ttsdal"
	"github.com/jamesrr39/tts-data-client/ttsdal/storetestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureStore(t *testing.T) ttsdal.ObjStore {
	store, err := storetestutil.NewFixtureStore(map[string][]storetestutil.SolarRow{
		"tracking-the-sun/2019/state=CA/technology=solar_pv/part-0.parquet": {
			{SystemID: 1, State: "CA", Technology: "solar_pv", SystemSize: 4000, InstallationYear: 2019, Azimuth: storetestutil.Float64Ptr(180)},
			{SystemID: 2, State: "CA", Technology: "solar_pv", SystemSize: 6000, InstallationYear: 2019},
		},
		"tracking-the-sun/2019/state=CA/technology=CSP/part-0.parquet": {
			{SystemID: 3, State: "CA", Technology: "CSP", SystemSize: 8000, InstallationYear: 2019, Azimuth: storetestutil.Float64Ptr(90)},
		},
		"tracking-the-sun/2019/state=NY/technology=solar_pv/part-0.parquet": {
			{SystemID: 4, State: "NY", Technology: "solar_pv", SystemSize: 3000, InstallationYear: 2019},
		},
		"tracking-the-sun/2020/state=CA/technology=solar_pv/part-0.parquet": {
			{SystemID: 5, State: "CA", Technology: "solar_pv", SystemSize: 9000, InstallationYear: 2020},
		},
	})
	require.NoError(t, err)

	return store
}

func newTestClient(t *testing.T, options Options) *Client {
	logger := logpkg.NewLogger(os.Stderr, logpkg.LogLevelError)
	return NewClient(newFixtureStore(t), logger, options)
}

func Test_Query(t *testing.T) {
	client := newTestClient(t, Options{})

	t.Run("partition params only", func(t *testing.T) {
		frame, err := client.Query(context.Background(), tts.QueryParams{Year: 2019, State: "CA"}, nil)
		require.NoError(t, err)

		assert.Equal(t, 3, frame.NumRows())
		for i := 0; i < frame.NumRows(); i++ {
			cell, ok := frame.Cell(i, "state")
			require.True(t, ok)
			assert.Equal(t, "CA", cell)
		}
	})

	t.Run("field filter narrows the result", func(t *testing.T) {
		unfiltered, err := client.Query(context.Background(), tts.QueryParams{Year: 2019, State: "CA"}, nil)
		require.NoError(t, err)

		filtered, err := client.Query(context.Background(), tts.QueryParams{Year: 2019, State: "CA"}, tts.FieldFilters{
			{FieldName: "system_size", Operator: tts.ComparativeOperatorGreaterThan, Value: 5000},
		})
		require.NoError(t, err)

		assert.Less(t, filtered.NumRows(), unfiltered.NumRows())
		require.Equal(t, 2, filtered.NumRows())
		for i := 0; i < filtered.NumRows(); i++ {
			cell, ok := filtered.Cell(i, "system_size")
			require.True(t, ok)
			assert.Greater(t, cell.(float64), float64(5000))
		}
	})

	t.Run("combined filters are the intersection", func(t *testing.T) {
		frame, err := client.Query(context.Background(), tts.QueryParams{Year: 2019, State: "CA"}, tts.FieldFilters{
			{FieldName: "system_size", Operator: tts.ComparativeOperatorGreaterThan, Value: 5000},
			{FieldName: "technology", Operator: tts.ComparativeOperatorEqualTo, Value: "CSP"},
		})
		require.NoError(t, err)

		require.Equal(t, 1, frame.NumRows())
		cell, ok := frame.Cell(0, "system_id")
		require.True(t, ok)
		assert.Equal(t, int64(3), cell)
	})

	t.Run("no matching partition", func(t *testing.T) {
		_, err := client.Query(context.Background(), tts.QueryParams{Year: 2033}, nil)
		require.Equal(t, tts.ErrNoPartitionsFound, err)
	})

	t.Run("invalid filter aborts before fetch", func(t *testing.T) {
		_, err := client.Query(context.Background(), tts.QueryParams{Year: 2019}, tts.FieldFilters{
			{FieldName: "system_size", Operator: "~=", Value: 5000},
		})
		require.Equal(t, tts.ErrInvalidFilter, err)
	})

	t.Run("unknown filter column", func(t *testing.T) {
		_, err := client.Query(context.Background(), tts.QueryParams{Year: 2019}, tts.FieldFilters{
			{FieldName: "no_such_column", Operator: tts.ComparativeOperatorEqualTo, Value: 5000},
		})
		require.Equal(t, tts.ErrInvalidFilter, err)
	})

	t.Run("concurrent fetch returns the same result", func(t *testing.T) {
		concurrentClient := newTestClient(t, Options{MaxConcurrentFetches: 4})

		sequential, err := client.Query(context.Background(), tts.QueryParams{Year: 2019}, nil)
		require.NoError(t, err)

		concurrent, err := concurrentClient.Query(context.Background(), tts.QueryParams{Year: 2019}, nil)
		require.NoError(t, err)

		assert.Equal(t, sequential.NumRows(), concurrent.NumRows())
		assert.Equal(t, sequential.ColumnNames(), concurrent.ColumnNames())
		for i := 0; i < sequential.NumRows(); i++ {
			assert.Equal(t, sequential.Row(i), concurrent.Row(i))
		}
	})

	t.Run("max files cap", func(t *testing.T) {
		cappedClient := newTestClient(t, Options{MaxFiles: 1})

		frame, err := cappedClient.Query(context.Background(), tts.QueryParams{Year: 2019, State: "CA"}, nil)
		require.NoError(t, err)

		// only the first file (sorted key order: technology=CSP) is fetched
		assert.Equal(t, 1, frame.NumRows())
	})
}

func Test_CountRows(t *testing.T) {
	client := newTestClient(t, Options{})

	params := tts.QueryParams{Year: 2019, State: "CA"}
	filters := tts.FieldFilters{
		{FieldName: "system_size", Operator: tts.ComparativeOperatorGreaterThanOrEqualTo, Value: 6000},
	}

	frame, err := client.Query(context.Background(), params, filters)
	require.NoError(t, err)

	count, err := client.CountRows(context.Background(), params, filters)
	require.NoError(t, err)

	assert.Equal(t, frame.NumRows(), count)
}

func Test_GetFields(t *testing.T) {
	client := newTestClient(t, Options{})

	params := tts.QueryParams{Year: 2019, State: "CA"}

	fields, err := client.GetFields(context.Background(), params)
	require.NoError(t, err)

	frame, err := client.Query(context.Background(), params, nil)
	require.NoError(t, err)

	assert.Equal(t, frame.ColumnNames(), fields)

	_, err = client.GetFields(context.Background(), tts.QueryParams{Year: 2033})
	require.Equal(t, tts.ErrNoPartitionsFound, err)
}

// phantomKeyStore lists one extra key that does not exist, simulating an
// object deleted between listing and fetch.
type phantomKeyStore struct {
	ttsdal.ObjStore
	phantomKey string
}

func (s *phantomKeyStore) ListKeys(ctx context.Context, prefix string) ([]ttsdal.ObjectInfo, errorsx.Error) {
	infos, err := s.ObjStore.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	return append(infos, ttsdal.ObjectInfo{Key: s.phantomKey, Size: 1}), nil
}

func Test_Query_skipsAbsentObjects(t *testing.T) {
	store := &phantomKeyStore{
		ObjStore:   newFixtureStore(t),
		phantomKey: "tracking-the-sun/2019/state=CA/technology=solar_pv/part-9.parquet",
	}

	logger := logpkg.NewLogger(os.Stderr, logpkg.LogLevelError)
	client := NewClient(store, logger, Options{})

	frame, err := client.Query(context.Background(), tts.QueryParams{Year: 2019, State: "CA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, frame.NumRows())
}

type recordingProgressListener struct {
	mu              sync.Mutex
	resolvedFiles   int
	fileFetches     int
	queryDoneRows   int
	queryDoneCalled bool
}

func (l *recordingProgressListener) OnResolveDone(totalFiles int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolvedFiles = totalFiles
}

func (l *recordingProgressListener) OnFileFetched(key string, sizeBytes int64, fetchedFiles, totalFiles int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fileFetches++
}

func (l *recordingProgressListener) OnQueryDone(totalRows int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queryDoneRows = totalRows
	l.queryDoneCalled = true
}

func Test_Query_reportsProgress(t *testing.T) {
	listener := new(recordingProgressListener)
	client := newTestClient(t, Options{ProgressListener: listener})

	frame, err := client.Query(context.Background(), tts.QueryParams{Year: 2019, State: "CA"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, listener.resolvedFiles)
	assert.Equal(t, 2, listener.fileFetches)
	assert.True(t, listener.queryDoneCalled)
	assert.Equal(t, frame.NumRows(), listener.queryDoneRows)
}

func Test_WriteSummary(t *testing.T) {
	client := newTestClient(t, Options{})

	buf := bytes.NewBuffer(nil)
	err := client.WriteSummary(context.Background(), buf, tts.QueryParams{Year: 2019, State: "CA"})
	require.NoError(t, err)

	snapshot.AssertMatchesSnapshot(t, "WriteSummary_2019_CA", snapshot.NewTextSnapshot(buf.String()))
}

package ttsclient

import (
	"context"
	"sync/atomic"

	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/semaphore"
	"github.com/jamesrr39/tts-data-client/ttsframe"
)

// fetchFrames fetches and parses every key, preserving key order in the
// result. Objects that disappeared between listing and fetch are skipped; a
// skipped key yields a nil frame. When MaxConcurrentFetches > 1 the fetches
// fan out, bounded by a semaphore.
func (c *Client) fetchFrames(ctx context.Context, keys []string) ([]*ttsframe.Frame, errorsx.Error) {
	span := startSpanIfTracing(ctx, "fetch data files")
	defer endSpanIfTracing(ctx, span)

	frames := make([]*ttsframe.Frame, len(keys))
	fetchErrors := make([]errorsx.Error, len(keys))

	var fetchedCount int64

	fetchOne := func(i int, key string) {
		frame, sizeBytes, err := c.fetchFrame(ctx, key)
		if err != nil {
			fetchErrors[i] = err
			return
		}

		frames[i] = frame

		if frame != nil {
			fetched := atomic.AddInt64(&fetchedCount, 1)
			c.progressListener().OnFileFetched(key, sizeBytes, int(fetched), len(keys))
		}
	}

	if c.options.MaxConcurrentFetches > 1 {
		sema := semaphore.NewSemaphore(c.options.MaxConcurrentFetches)
		for i, key := range keys {
			sema.Add()
			go func(i int, key string) {
				defer sema.Done()
				fetchOne(i, key)
			}(i, key)
		}
		sema.Wait()
	} else {
		for i, key := range keys {
			fetchOne(i, key)
		}
	}

	for _, err := range fetchErrors {
		if err != nil {
			return nil, err
		}
	}

	var loadedFrames []*ttsframe.Frame
	for _, frame := range frames {
		if frame == nil {
			continue
		}

		loadedFrames = append(loadedFrames, frame)
	}

	return loadedFrames, nil
}

// fetchFrame returns a nil frame for an object that no longer exists: an
// absent partition is "no data", not an error.
func (c *Client) fetchFrame(ctx context.Context, key string) (*ttsframe.Frame, int64, errorsx.Error) {
	data, err := c.store.GetObject(ctx, key)
	if err != nil {
		if err == errorsx.ObjectNotFound {
			c.logger.Debug("object %q disappeared between listing and fetch, skipping", key)
			return nil, 0, nil
		}

		return nil, 0, errorsx.Wrap(err, "key", key)
	}

	frame, err2 := ttsframe.FrameFromParquetBytes(data)
	if err2 != nil {
		return nil, 0, errorsx.Wrap(err2, "key", key)
	}

	return frame, int64(len(data)), nil
}

// startSpanIfTracing starts a span only when the context carries a tracer,
// so library callers without tracing set up are unaffected.
func startSpanIfTracing(ctx context.Context, name string) *tracing.Span {
	if ctx.Value(tracing.TracerCtxKey) == nil || ctx.Value(tracing.TraceCtxKey) == nil {
		return nil
	}

	return tracing.StartSpan(ctx, name)
}

func endSpanIfTracing(ctx context.Context, span *tracing.Span) {
	if span == nil {
		return
	}

	span.End(ctx)
}

// Package download fetches install items into the install root with a
// bounded pool of workers.
//
// Every item is checked against its expected digest first and only fetched
// when the local file is missing or different. Progress is reported as
// Events on a caller-owned channel, and cancellation is cooperative through
// the context passed to Run.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/rig/pkg/rig/integrity"
	"github.com/jamesainslie/rig/pkg/rig/logging"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

var logger = logging.Get("download")

var (
	// ErrIO indicates a local filesystem failure.
	ErrIO = errors.New("i/o error")

	// ErrNetwork indicates a transport failure or a non-2xx response.
	ErrNetwork = errors.New("network error")

	// ErrCancelled indicates the run's context ended before the item
	// completed, including when the event receiver went away and the caller
	// cancelled to release the engine.
	ErrCancelled = errors.New("download cancelled")
)

// Engine runs downloads. It holds no per-run state and may be reused.
type Engine struct {
	opts    Options
	buffers sync.Pool
}

// New returns an Engine. Missing options are defaulted.
func New(opts Options) *Engine {
	opts.Validate()
	if abs, err := filepath.Abs(opts.Root); err == nil {
		opts.Root = abs
	}

	e := &Engine{opts: opts}
	e.buffers.New = func() any {
		b := make([]byte, opts.BufferSize)
		return &b
	}
	return e
}

// Root returns the absolute install root.
func (e *Engine) Root() string {
	return e.opts.Root
}

// Run fetches items with at most Workers in flight and returns the first
// error by completion order. The first failure cancels the remaining items
// and Run waits for every started item to stop before returning.
//
// events may be nil. Otherwise the caller must keep receiving until Run
// returns or cancel ctx; Run never closes it.
func (e *Engine) Run(ctx context.Context, items []types.Item, events chan<- Event) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	logger.Debug("run started", "items", len(items), "workers", e.opts.Workers)

	for _, item := range items {
		g.Go(func() error {
			return e.fetch(gctx, item, events)
		})
	}

	err := g.Wait()
	if err != nil {
		logger.Warn("run failed", "error", err)
	}
	return err
}

// Fetch runs a single item outside the pool.
func (e *Engine) Fetch(ctx context.Context, item types.Item, events chan<- Event) error {
	return e.fetch(ctx, item, events)
}

func (e *Engine) fetch(ctx context.Context, item types.Item, events chan<- Event) error {
	if ctx.Err() != nil {
		return cancelled(ctx, item)
	}

	path := filepath.Join(e.opts.Root, filepath.FromSlash(item.Path))
	if err := send(ctx, events, Event{Type: EventStart, Item: item, Path: path, Total: item.Size}); err != nil {
		return err
	}

	err := e.transfer(ctx, item, path, events)
	if err != nil {
		if !errors.Is(err, ErrCancelled) {
			logger.Warn("item failed", "path", item.Path, "url", item.URL, "error", err)
		}
		deliver(ctx, events, Event{Type: EventError, Item: item, Path: path, Total: item.Size, Err: err})
	}
	return err
}

func (e *Engine) transfer(ctx context.Context, item types.Item, path string, events chan<- Event) error {
	if item.SHA1 != "" {
		if err := integrity.Validate(item.SHA1); err != nil {
			return err
		}
		done, err := e.satisfied(ctx, item, path, events)
		if err != nil || done {
			return err
		}
	}
	return e.get(ctx, item, path, events)
}

// satisfied reports whether an existing file already has the expected
// digest, emitting the cached Finish when it does.
func (e *Engine) satisfied(ctx context.Context, item types.Item, path string, events chan<- Event) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s is not a regular file", ErrIO, path)
	}

	if e.opts.Cache == nil || !e.opts.Cache.Verified(path, info, item.SHA1) {
		ok, err := integrity.Check(path, item.SHA1)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return false, nil
		case errors.Is(err, integrity.ErrInvalidDigest):
			return false, err
		case err != nil:
			return false, fmt.Errorf("%w: %w", ErrIO, err)
		case !ok:
			logger.Debug("digest mismatch, fetching again", "path", item.Path)
			return false, nil
		}
		e.record(path, info, item.SHA1)
	}

	return true, send(ctx, events, Event{
		Type:       EventFinish,
		Item:       item,
		Path:       path,
		Downloaded: info.Size(),
		Total:      info.Size(),
		Cached:     true,
	})
}

func (e *Engine) get(ctx context.Context, item types.Item, path string, events chan<- Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", e.opts.UserAgent)

	resp, err := e.opts.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, item)
		}
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: GET %s: %s", ErrNetwork, item.URL, resp.Status)
	}

	total := item.Size
	if resp.ContentLength >= 0 {
		total = resp.ContentLength
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	downloaded, digest, err := e.copy(ctx, item, path, total, f, resp.Body, events)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: %w", ErrIO, closeErr)
	}
	if err != nil {
		return err
	}

	if item.SHA1 != "" {
		ok, err := integrity.Matches(digest, item.SHA1)
		if err != nil {
			return err
		}
		if !ok {
			_ = os.Remove(path)
			return fmt.Errorf("%w: %s from %s: got %x, want %s",
				integrity.ErrMismatch, item.Path, item.URL, digest, item.SHA1)
		}
		if info, err := os.Stat(path); err == nil {
			e.record(path, info, item.SHA1)
		}
	}

	return send(ctx, events, Event{
		Type:       EventFinish,
		Item:       item,
		Path:       path,
		Downloaded: downloaded,
		Total:      total,
	})
}

// copy streams body into f chunk by chunk, checking ctx before each write.
func (e *Engine) copy(ctx context.Context, item types.Item, path string, total int64, f io.Writer, body io.Reader, events chan<- Event) (int64, []byte, error) {
	bufp := e.buffers.Get().(*[]byte)
	defer e.buffers.Put(bufp)
	buf := *bufp

	h := integrity.NewHash()
	var downloaded int64

	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if ctx.Err() != nil {
				return downloaded, nil, cancelled(ctx, item)
			}
			if _, err := f.Write(buf[:n]); err != nil {
				return downloaded, nil, fmt.Errorf("%w: %w", ErrIO, err)
			}
			_, _ = h.Write(buf[:n])
			downloaded += int64(n)

			err := send(ctx, events, Event{
				Type:       EventChunk,
				Item:       item,
				Path:       path,
				ChunkBytes: int64(n),
				Downloaded: downloaded,
				Total:      total,
			})
			if err != nil {
				return downloaded, nil, err
			}
		}

		if errors.Is(rerr, io.EOF) {
			return downloaded, h.Sum(nil), nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return downloaded, nil, cancelled(ctx, item)
			}
			return downloaded, nil, fmt.Errorf("%w: reading %s: %w", ErrNetwork, item.URL, rerr)
		}
	}
}

func (e *Engine) record(path string, info os.FileInfo, sha1 string) {
	if e.opts.Cache == nil {
		return
	}
	if err := e.opts.Cache.Record(path, info, sha1); err != nil {
		logger.Debug("verified cache write failed", "path", path, "error", err)
	}
}

func cancelled(ctx context.Context, item types.Item) error {
	return fmt.Errorf("%w: %s: %w", ErrCancelled, item.Path, context.Cause(ctx))
}

// send delivers ev, giving up when ctx ends.
func send(ctx context.Context, events chan<- Event, ev Event) error {
	if events == nil {
		return nil
	}
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: event not delivered: %w", ErrCancelled, ev.Item.Path, context.Cause(ctx))
	}
}

// deliver is send for terminal events: a receiver with room wins over an
// ended context.
func deliver(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
		return
	default:
	}
	_ = send(ctx, events, ev)
}

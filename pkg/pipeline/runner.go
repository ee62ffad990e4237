package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fretline/fretline/pkg/cache"
	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/observability"
	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/tab/layout"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete arrange → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, notes []tab.Note, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	arrangeStart := time.Now()
	observability.Pipeline().OnArrangeStart(ctx, len(notes))
	arrangement, arrangeHit, err := r.ArrangeWithCacheInfo(ctx, notes, opts)
	result.Stats.ArrangeTime = time.Since(arrangeStart)
	groups := 0
	if arrangement != nil {
		groups = len(arrangement.Groups)
	}
	observability.Pipeline().OnArrangeComplete(ctx, len(notes), groups, result.Stats.ArrangeTime, err)
	if err != nil {
		return nil, err
	}
	result.Arrangement = arrangement
	result.CacheInfo.ArrangeHit = arrangeHit

	r.Logger.Info("arranged notes",
		"groups", len(arrangement.Groups),
		"dropped", arrangement.Dropped,
		"duration", result.Stats.ArrangeTime)

	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, groups)
	pages, layoutHit, err := r.PaginateWithCacheInfo(ctx, arrangement, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, len(pages), result.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}
	result.Pages = pages
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"pages", len(pages),
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, pages, arrangement, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ArrangeWithCacheInfo arranges notes with caching and reports cache hit info.
func (r *Runner) ArrangeWithCacheInfo(ctx context.Context, notes []tab.Note, opts Options) (*tab.Arrangement, bool, error) {
	if err := opts.ValidateForArrange(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	notesData, err := json.Marshal(notes)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize notes for cache key")
	}
	cacheKey := r.Keyer.ArrangementKey(cache.Hash(notesData), opts.ArrangementKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached tab.Arrangement
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "arrangement")
				return &cached, true, nil
			}
			// Corrupt entry: fall through and recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "arrangement")
	}

	inst, err := opts.Instrument()
	if err != nil {
		return nil, false, err
	}
	arrangement := tab.Arrange(notes, inst, opts.TabOptions())

	if data, err := json.Marshal(arrangement); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArrangement)
		observability.Cache().OnCacheSet(ctx, "arrangement", len(data))
	}
	return &arrangement, false, nil
}

// Arrange is a convenience wrapper that discards the cache hit info.
func (r *Runner) Arrange(ctx context.Context, notes []tab.Note, opts Options) (*tab.Arrangement, error) {
	a, _, err := r.ArrangeWithCacheInfo(ctx, notes, opts)
	return a, err
}

// PaginateWithCacheInfo lays out an arrangement with caching and reports
// cache hit info.
func (r *Runner) PaginateWithCacheInfo(ctx context.Context, arrangement *tab.Arrangement, opts Options) ([]layout.Page, bool, error) {
	if err := opts.ValidateForArrange(); err != nil {
		return nil, false, err
	}
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	arrData, err := json.Marshal(arrangement)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize arrangement for cache key")
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(arrData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached []layout.Page
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	pages, err := layout.Paginate(arrangement.Groups, len(opts.Tuning), opts.LayoutOptions())
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(pages); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}
	return pages, false, nil
}

// Paginate is a convenience wrapper that discards the cache hit info.
func (r *Runner) Paginate(ctx context.Context, arrangement *tab.Arrangement, opts Options) ([]layout.Page, error) {
	pages, _, err := r.PaginateWithCacheInfo(ctx, arrangement, opts)
	return pages, err
}

// RenderWithCacheInfo renders artifacts with caching and reports cache hit
// info. The arrangement supplies the totals embedded in JSON output.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, pages []layout.Page, arrangement *tab.Arrangement, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForArrange(); err != nil {
		return nil, false, err
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	pagesData, err := json.Marshal(pages)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	layoutHash := cache.Hash(pagesData)

	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		allCached := true
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	rendered, err := renderFormats(pages, arrangement, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, pages []layout.Page, arrangement *tab.Arrangement, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, pages, arrangement, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

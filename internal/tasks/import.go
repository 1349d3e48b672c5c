package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/soundwave/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultImportWorkers = 3
	maxImportWorkers     = 10
	defaultImportRate    = 5.0
)

// ImportOpts contains configuration for bulk catalogue imports.
type ImportOpts struct {
	Workers   int     // Concurrent artist saves (default: 3, max: 10)
	RateLimit float64 // Artist saves started per second (default: 5)
}

// ArtistImportResult is the outcome for one form of an import.
type ArtistImportResult struct {
	Form   ArtistForm
	Result *SaveResult
	Error  error
}

// ImportResult summarises a bulk import. Results keep the order of the input forms.
type ImportResult struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []ArtistImportResult
}

// Import saves every form with bounded concurrency and a request rate limit.
//
// A failing form does not stop the others. The returned error is non-nil only when ctx ended
// before every form was attempted.
func (e *CatalogEngine) Import(ctx context.Context, forms []ArtistForm, opts ImportOpts, prog chan<- ProgressUpdate) (*ImportResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: catalogue API not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Workers <= 0 {
		opts.Workers = defaultImportWorkers
	}
	if opts.Workers > maxImportWorkers {
		opts.Workers = maxImportWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultImportRate
	}

	result := &ImportResult{
		Total:   len(forms),
		Results: make([]ArtistImportResult, len(forms)),
	}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	var (
		mu        sync.Mutex
		completed int
	)

	var g errgroup.Group
	g.SetLimit(opts.Workers)

	for i, form := range forms {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		g.Go(func() error {
			res, err := e.SaveArtist(ctx, form, nil)

			mu.Lock()
			defer mu.Unlock()

			completed++
			result.Results[i] = ArtistImportResult{Form: form, Result: res, Error: err}
			if err != nil {
				result.Failed++
				e.sendProgress(prog, importFailedUpdate(completed, len(forms), form.Name, err))
			} else {
				result.Succeeded++
				e.sendProgress(prog, importCompletedUpdate(completed, len(forms), form.Name))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil && completed < len(forms) {
		return result, fmt.Errorf("import interrupted after %d of %d artists: %w", completed, len(forms), err)
	}
	return result, nil
}

type importFile struct {
	Artists []ArtistForm `toml:"artist"`
}

// LoadImportFile reads a TOML catalogue file:
//
//	[[artist]]
//	name = "Pitty"
//	kind = "SOLO"
//
//	  [[artist.album]]
//	  title = "Admirável Chip Novo"
//	  year = 2003
//	  covers = ["covers/acn.jpg"]
//
// Relative cover paths are resolved against the file's directory.
func LoadImportFile(path string) ([]ArtistForm, error) {
	var f importFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrInvalidInput, path, err)
	}
	if len(f.Artists) == 0 {
		return nil, fmt.Errorf("%w: %s has no [[artist]] entries", shared.ErrInvalidInput, path)
	}

	base := filepath.Dir(path)
	for i := range f.Artists {
		for j := range f.Artists[i].Albums {
			covers := f.Artists[i].Albums[j].Covers
			for k, c := range covers {
				if !filepath.IsAbs(c) {
					covers[k] = filepath.Join(base, c)
				}
			}
		}
	}
	return f.Artists, nil
}

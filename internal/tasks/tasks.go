package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/shared"
)

// AlbumForm is one album row of the artist form.
type AlbumForm struct {
	Title       string   `toml:"title"`
	ReleaseYear int      `toml:"year"`
	Covers      []string `toml:"covers"` // Paths to image files
}

// ArtistForm is the artist form: the artist plus albums to add to it.
type ArtistForm struct {
	ID     int64             `toml:"id"` // Zero creates a new artist
	Name   string            `toml:"name"`
	Kind   models.ArtistKind `toml:"kind"`
	Albums []AlbumForm       `toml:"album"`
}

func (f ArtistForm) request() models.ArtistRequest {
	return models.ArtistRequest{Name: f.Name, Kind: f.Kind}
}

// Validate checks the artist and every album before any request is sent.
func (f ArtistForm) Validate() error {
	if err := f.request().Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	for i, a := range f.Albums {
		req := models.AlbumRequest{Title: a.Title, ReleaseYear: a.ReleaseYear}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("%w: album %d: %w", shared.ErrInvalidInput, i+1, err)
		}
	}
	return nil
}

// SaveResult is what [CatalogEngine.SaveArtist] produced.
type SaveResult struct {
	Artist  *models.ArtistDetail
	Albums  []*models.Album
	Created bool // True when the artist did not exist before
}

// CatalogAPI is the subset of [services.APIService] the engine drives.
type CatalogAPI interface {
	CreateArtist(ctx context.Context, req models.ArtistRequest) (*models.ArtistDetail, error)
	UpdateArtist(ctx context.Context, id int64, req models.ArtistRequest) (*models.ArtistDetail, error)
	CreateAlbum(ctx context.Context, artistID int64, req models.AlbumRequest) (*models.Album, error)
	UploadCovers(ctx context.Context, albumID int64, files []services.CoverFile) (*models.Album, error)
}

// CatalogEngine runs multi-request catalogue operations.
type CatalogEngine struct {
	api       CatalogAPI
	loadCover func(path string) (services.CoverFile, error)
}

// NewCatalogEngine creates a CatalogEngine backed by api.
func NewCatalogEngine(api CatalogAPI) *CatalogEngine {
	return &CatalogEngine{api: api, loadCover: services.LoadCoverFile}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *CatalogEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// SaveArtist submits the artist form: save the artist, then create each album and upload its covers.
//
// Cover files are read before any request is sent, so a missing file fails the whole form untouched.
// A failure after the artist is saved returns the partial result alongside the error.
func (e *CatalogEngine) SaveArtist(ctx context.Context, form ArtistForm, progress chan<- ProgressUpdate) (*SaveResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: catalogue API not initialized", shared.ErrServiceUnavailable)
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	covers := make([][]services.CoverFile, len(form.Albums))
	for i, a := range form.Albums {
		for _, path := range a.Covers {
			f, err := e.loadCover(path)
			if err != nil {
				return nil, fmt.Errorf("album %q: %w", a.Title, err)
			}
			covers[i] = append(covers[i], f)
		}
	}

	e.sendProgress(progress, savingArtistUpdate(form))

	result := &SaveResult{Created: form.ID == 0}
	var err error
	if result.Created {
		result.Artist, err = e.api.CreateArtist(ctx, form.request())
	} else {
		result.Artist, err = e.api.UpdateArtist(ctx, form.ID, form.request())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save artist %s: %w", form.Name, err)
	}
	e.sendProgress(progress, savedArtistUpdate(result.Artist))

	total := len(form.Albums)
	for i, a := range form.Albums {
		e.sendProgress(progress, createAlbumUpdate(i+1, total, a.Title))

		album, err := e.api.CreateAlbum(ctx, result.Artist.ID, models.AlbumRequest{Title: a.Title, ReleaseYear: a.ReleaseYear})
		if err != nil {
			return result, fmt.Errorf("failed to create album %s: %w", a.Title, err)
		}

		if len(covers[i]) > 0 {
			e.sendProgress(progress, uploadCoversUpdate(i+1, total, album, len(covers[i])))
			if album, err = e.api.UploadCovers(ctx, album.ID, covers[i]); err != nil {
				return result, fmt.Errorf("failed to upload covers for %s: %w", a.Title, err)
			}
		}
		result.Albums = append(result.Albums, album)
	}
	return result, nil
}

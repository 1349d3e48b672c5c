package services

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
)

const (
	// DefaultPageSize matches the three-by-three artist grid.
	DefaultPageSize   = 9
	DefaultArtistSort = "nome,asc"
	ArtistSortDesc    = "nome,desc"
	DefaultAlbumSort  = "anoLancamento,asc"
)

// ArtistQuery filters and pages the artist listing.
type ArtistQuery struct {
	Name string
	Page int
	Size int
	Sort string
}

func (q ArtistQuery) values() url.Values {
	v := url.Values{}
	if q.Name != "" {
		v.Set("nome", q.Name)
	}
	v.Set("page", strconv.Itoa(max(q.Page, 0)))
	v.Set("size", strconv.Itoa(positiveOr(q.Size, DefaultPageSize)))
	v.Set("sort", cmp.Or(q.Sort, DefaultArtistSort))
	return v
}

// AlbumQuery filters and pages the album listing. ArtistID wins over ArtistName server-side.
type AlbumQuery struct {
	ArtistID   int64
	ArtistName string
	Page       int
	Size       int
	Sort       string
}

func (q AlbumQuery) values() url.Values {
	v := url.Values{}
	if q.ArtistID > 0 {
		v.Set("artistaId", strconv.FormatInt(q.ArtistID, 10))
	}
	if q.ArtistName != "" {
		v.Set("nomeArtista", q.ArtistName)
	}
	v.Set("page", strconv.Itoa(max(q.Page, 0)))
	v.Set("size", strconv.Itoa(positiveOr(q.Size, DefaultPageSize)))
	v.Set("sort", cmp.Or(q.Sort, DefaultAlbumSort))
	return v
}

// CoverFile is an image queued for upload.
type CoverFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// LoadCoverFile reads path and infers its content type from the extension.
func LoadCoverFile(path string) (CoverFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CoverFile{}, fmt.Errorf("failed to read cover %s: %w", path, err)
	}

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return CoverFile{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}

func (a *APIService) ListArtists(ctx context.Context, q ArtistQuery) (*models.Page[models.ArtistSummary], error) {
	var page models.Page[models.ArtistSummary]
	if err := a.call(ctx, http.MethodGet, "/artistas?"+q.values().Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *APIService) GetArtist(ctx context.Context, id int64) (*models.ArtistDetail, error) {
	var artist models.ArtistDetail
	if err := a.call(ctx, http.MethodGet, fmt.Sprintf("/artistas/%d", id), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (a *APIService) CreateArtist(ctx context.Context, req models.ArtistRequest) (*models.ArtistDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var artist models.ArtistDetail
	if err := a.call(ctx, http.MethodPost, "/artistas", req, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (a *APIService) UpdateArtist(ctx context.Context, id int64, req models.ArtistRequest) (*models.ArtistDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var artist models.ArtistDetail
	if err := a.call(ctx, http.MethodPut, fmt.Sprintf("/artistas/%d", id), req, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (a *APIService) ListAlbums(ctx context.Context, q AlbumQuery) (*models.Page[models.Album], error) {
	var page models.Page[models.Album]
	if err := a.call(ctx, http.MethodGet, "/albuns?"+q.values().Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *APIService) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	var album models.Album
	if err := a.call(ctx, http.MethodGet, fmt.Sprintf("/albuns/%d", id), nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// CreateAlbum adds an album to the artist's discography.
func (a *APIService) CreateAlbum(ctx context.Context, artistID int64, req models.AlbumRequest) (*models.Album, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var album models.Album
	if err := a.call(ctx, http.MethodPost, fmt.Sprintf("/artistas/%d/albuns", artistID), req, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

func (a *APIService) UpdateAlbum(ctx context.Context, id int64, req models.AlbumRequest) (*models.Album, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var album models.Album
	if err := a.call(ctx, http.MethodPut, fmt.Sprintf("/albuns/%d", id), req, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// UploadCovers sends files as the multipart "files" field and returns the updated album.
func (a *APIService) UploadCovers(ctx context.Context, albumID int64, files []CoverFile) (*models.Album, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no cover files given", shared.ErrMissingArgument)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create multipart part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write cover %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	path := fmt.Sprintf("/albuns/%d/capas", albumID)
	resp, err := a.Do(ctx, http.MethodPost, path, buf.Bytes(), mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var album models.Album
	if err := decode(http.MethodPost, path, resp, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// call encodes payload (when non-nil) as JSON and decodes a 2xx body into out.
func (a *APIService) call(ctx context.Context, method, path string, payload, out any) error {
	var (
		data        []byte
		contentType string
	)
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		contentType = "application/json"
	}

	resp, err := a.Do(ctx, method, path, data, contentType)
	if err != nil {
		return err
	}
	return decode(method, path, resp, out)
}

func decode(method, path string, resp *APIResponse, out any) error {
	if !resp.OK() {
		return newStatusError(method, path, resp)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s %s: %v", shared.ErrAPIRequest, method, path, err)
	}
	return nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

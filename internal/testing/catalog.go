package testing

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/soundwave/internal/models"
)

// Credentials accepted by [FakeCatalog].
const (
	FakeUsername = "dj"
	FakePassword = "wave1"
	FakeRoles    = "EDITOR"
)

// FakeCatalog is an in-memory catalogue API, auth endpoints included, served over httptest.
//
// Issued access tokens stay valid until [FakeCatalog.ExpireAccessTokens].
type FakeCatalog struct {
	*httptest.Server

	mu       sync.Mutex
	artists  map[int64]*models.ArtistDetail
	nextID   int64
	access   map[string]bool
	refresh  map[string]bool
	issued   int
	requests []string
	uploads  map[int64][]string
}

// NewFakeCatalog starts a server that is closed when t finishes.
func NewFakeCatalog(t *testing.T) *FakeCatalog {
	t.Helper()

	f := &FakeCatalog{
		artists: make(map[int64]*models.ArtistDetail),
		access:  make(map[string]bool),
		refresh: make(map[string]bool),
		uploads: make(map[int64][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", f.login)
	mux.HandleFunc("POST /api/v1/auth/refresh", f.refreshToken)
	mux.HandleFunc("GET /api/v1/artistas", f.authed(f.listArtists))
	mux.HandleFunc("POST /api/v1/artistas", f.authed(f.createArtist))
	mux.HandleFunc("GET /api/v1/artistas/{id}", f.authed(f.getArtist))
	mux.HandleFunc("PUT /api/v1/artistas/{id}", f.authed(f.updateArtist))
	mux.HandleFunc("POST /api/v1/artistas/{id}/albuns", f.authed(f.createAlbum))
	mux.HandleFunc("GET /api/v1/albuns", f.authed(f.listAlbums))
	mux.HandleFunc("GET /api/v1/albuns/{id}", f.authed(f.getAlbum))
	mux.HandleFunc("PUT /api/v1/albuns/{id}", f.authed(f.updateAlbum))
	mux.HandleFunc("POST /api/v1/albuns/{id}/capas", f.authed(f.uploadCovers))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// BaseURL is the API root to hand to clients.
func (f *FakeCatalog) BaseURL() string {
	return f.URL + "/api/v1"
}

// IssueTokens returns a valid access/refresh pair without a login call.
func (f *FakeCatalog) IssueTokens() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked()
}

func (f *FakeCatalog) issueLocked() (string, string) {
	f.issued++
	access := fmt.Sprintf("access-%d", f.issued)
	refresh := fmt.Sprintf("refresh-%d", f.issued)
	f.access[access] = true
	f.refresh[refresh] = true
	return access, refresh
}

// ExpireAccessTokens invalidates every issued access token; refresh tokens stay valid.
func (f *FakeCatalog) ExpireAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.access)
}

// RevokeRefreshTokens invalidates every issued refresh token.
func (f *FakeCatalog) RevokeRefreshTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.refresh)
}

// AddArtist seeds an artist and returns its id.
func (f *FakeCatalog) AddArtist(name string, kind models.ArtistKind, albums ...models.Album) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	artist := &models.ArtistDetail{ID: f.nextID, Name: name, Kind: kind}
	for _, album := range albums {
		f.nextID++
		album.ID = f.nextID
		artist.Albums = append(artist.Albums, album)
	}
	f.artists[artist.ID] = artist
	return artist.ID
}

// Artist returns a copy of the stored artist.
func (f *FakeCatalog) Artist(id int64) (models.ArtistDetail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.artists[id]
	if !ok {
		return models.ArtistDetail{}, false
	}
	out := *a
	out.Albums = slices.Clone(a.Albums)
	return out, true
}

// ArtistByName finds a stored artist by exact name.
func (f *FakeCatalog) ArtistByName(name string) (models.ArtistDetail, bool) {
	f.mu.Lock()
	var id int64
	for _, a := range f.artists {
		if a.Name == name {
			id = a.ID
		}
	}
	f.mu.Unlock()
	return f.Artist(id)
}

// Uploads lists the file names uploaded to an album.
func (f *FakeCatalog) Uploads(albumID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.uploads[albumID])
}

// Requests lists "METHOD /path" for every request served, auth calls included.
func (f *FakeCatalog) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

func (f *FakeCatalog) record(r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
}

func (f *FakeCatalog) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		f.mu.Lock()
		ok := f.access[token]
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (f *FakeCatalog) login(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	var req struct{ Username, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username != FakeUsername || req.Password != FakePassword {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	access, refresh := f.IssueTokens()
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"user":         models.User{Username: req.Username, Roles: FakeRoles},
	})
}

func (f *FakeCatalog) refreshToken(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.refresh[req.RefreshToken] {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	access, refresh := f.issueLocked()
	writeJSON(w, http.StatusOK, map[string]any{"accessToken": access, "refreshToken": refresh})
}

func (f *FakeCatalog) listArtists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.ToLower(q.Get("nome"))

	f.mu.Lock()
	var rows []models.ArtistSummary
	for _, a := range f.artists {
		if name != "" && !strings.Contains(strings.ToLower(a.Name), name) {
			continue
		}
		rows = append(rows, models.ArtistSummary{ID: a.ID, Name: a.Name, Kind: a.Kind, AlbumCount: len(a.Albums)})
	}
	f.mu.Unlock()

	desc := strings.HasSuffix(q.Get("sort"), ",desc")
	slices.SortFunc(rows, func(a, b models.ArtistSummary) int {
		if desc {
			return cmp.Compare(b.Name, a.Name)
		}
		return cmp.Compare(a.Name, b.Name)
	})

	writeJSON(w, http.StatusOK, paginate(rows, q.Get("page"), q.Get("size")))
}

func (f *FakeCatalog) getArtist(w http.ResponseWriter, r *http.Request) {
	a, ok := f.Artist(pathID(r))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "Recurso não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (f *FakeCatalog) createArtist(w http.ResponseWriter, r *http.Request) {
	var req models.ArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Erro de Validação", "details": map[string]string{"nome": "must not be blank"}})
		return
	}

	id := f.AddArtist(req.Name, req.Kind)
	a, _ := f.Artist(id)
	writeJSON(w, http.StatusCreated, a)
}

func (f *FakeCatalog) updateArtist(w http.ResponseWriter, r *http.Request) {
	var req models.ArtistRequest
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	a, ok := f.artists[pathID(r)]
	if ok {
		a.Name, a.Kind = req.Name, req.Kind
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Recurso não encontrado"})
		return
	}
	out, _ := f.Artist(a.ID)
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeCatalog) createAlbum(w http.ResponseWriter, r *http.Request) {
	var req models.AlbumRequest
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	a, ok := f.artists[pathID(r)]
	var album models.Album
	if ok {
		f.nextID++
		album = models.Album{ID: f.nextID, Title: req.Title, ReleaseYear: req.ReleaseYear}
		a.Albums = append(a.Albums, album)
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Recurso não encontrado"})
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

func (f *FakeCatalog) listAlbums(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	artistID, _ := strconv.ParseInt(q.Get("artistaId"), 10, 64)
	artistName := strings.ToLower(q.Get("nomeArtista"))

	f.mu.Lock()
	var rows []models.Album
	for _, a := range f.artists {
		if artistID > 0 && a.ID != artistID {
			continue
		}
		if artistName != "" && !strings.Contains(strings.ToLower(a.Name), artistName) {
			continue
		}
		rows = append(rows, a.Albums...)
	}
	f.mu.Unlock()

	slices.SortFunc(rows, func(a, b models.Album) int { return cmp.Compare(a.ReleaseYear, b.ReleaseYear) })
	writeJSON(w, http.StatusOK, paginate(rows, q.Get("page"), q.Get("size")))
}

// findAlbumLocked returns a pointer into the owning artist's album slice.
func (f *FakeCatalog) findAlbumLocked(id int64) *models.Album {
	for _, a := range f.artists {
		for i := range a.Albums {
			if a.Albums[i].ID == id {
				return &a.Albums[i]
			}
		}
	}
	return nil
}

func (f *FakeCatalog) getAlbum(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	album := f.findAlbumLocked(pathID(r))
	var out models.Album
	if album != nil {
		out = *album
	}
	f.mu.Unlock()

	if album == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Recurso não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeCatalog) updateAlbum(w http.ResponseWriter, r *http.Request) {
	var req models.AlbumRequest
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	album := f.findAlbumLocked(pathID(r))
	var out models.Album
	if album != nil {
		album.Title, album.ReleaseYear = req.Title, req.ReleaseYear
		out = *album
	}
	f.mu.Unlock()

	if album == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Recurso não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeCatalog) uploadCovers(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	files := r.MultipartForm.File["files"]

	f.mu.Lock()
	album := f.findAlbumLocked(pathID(r))
	var out models.Album
	if album != nil {
		for _, fh := range files {
			f.nextID++
			album.Covers = append(album.Covers, models.Cover{
				ID:          f.nextID,
				URL:         fmt.Sprintf("http://minio.local/capas/%d/%s", album.ID, fh.Filename),
				ContentType: fh.Header.Get("Content-Type"),
			})
			f.uploads[album.ID] = append(f.uploads[album.ID], fh.Filename)
		}
		out = *album
	}
	f.mu.Unlock()

	if album == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Recurso não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func paginate[T any](rows []T, pageParam, sizeParam string) models.Page[T] {
	page, _ := strconv.Atoi(pageParam)
	size, _ := strconv.Atoi(sizeParam)
	if size <= 0 {
		size = 10
	}

	total := len(rows)
	start := min(page*size, total)
	end := min(start+size, total)
	pages := (total + size - 1) / size

	content := rows[start:end]
	if content == nil {
		content = []T{}
	}
	return models.Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Number:        page,
		Size:          size,
		First:         page == 0,
		Last:          page+1 >= pages,
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

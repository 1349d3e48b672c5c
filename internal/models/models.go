package models

import (
	"fmt"
	"strings"
)

// ArtistKind classifies an artist. The API accepts the values below.
type ArtistKind string

const (
	KindSolo ArtistKind = "SOLO"
	KindBand ArtistKind = "BANDA"
	KindDuo  ArtistKind = "DUPLA"
)

// ArtistKinds lists every accepted [ArtistKind] in display order.
var ArtistKinds = []ArtistKind{KindSolo, KindBand, KindDuo}

// ParseArtistKind normalizes s (case-insensitive) into an [ArtistKind].
func ParseArtistKind(s string) (ArtistKind, error) {
	k := ArtistKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown artist kind %q (want one of SOLO, BANDA, DUPLA)", s)
	}
	return k, nil
}

func (k ArtistKind) Valid() bool {
	switch k {
	case KindSolo, KindBand, KindDuo:
		return true
	}
	return false
}

func (k ArtistKind) String() string {
	if k == "" {
		return "ARTISTA"
	}
	return string(k)
}

// User is the authenticated principal. Roles is the comma-joined authority list.
type User struct {
	Username string `json:"username"`
	Roles    string `json:"roles"`
}

// HasRole reports whether role appears in the comma-joined role list.
func (u User) HasRole(role string) bool {
	for r := range strings.SplitSeq(u.Roles, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

type ArtistSummary struct {
	ID         int64      `json:"id"`
	Name       string     `json:"nome"`
	Kind       ArtistKind `json:"tipo"`
	AlbumCount int        `json:"numeroAlbuns"`
}

type ArtistDetail struct {
	ID     int64      `json:"id"`
	Name   string     `json:"nome"`
	Kind   ArtistKind `json:"tipo"`
	Albums []Album    `json:"albuns"`
}

type Album struct {
	ID          int64   `json:"id"`
	Title       string  `json:"titulo"`
	ReleaseYear int     `json:"anoLancamento"`
	Covers      []Cover `json:"capas"`
}

// FirstCover returns the album's first cover, if any.
func (a Album) FirstCover() (Cover, bool) {
	if len(a.Covers) == 0 {
		return Cover{}, false
	}
	return a.Covers[0], true
}

type Cover struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

// Page is the paginated envelope the API wraps listings in.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Number+1 < p.TotalPages
}

// HasPrev reports whether a page precedes this one.
func (p Page[T]) HasPrev() bool {
	return p.Number > 0
}

// ArtistRequest is the create/update payload for an artist.
type ArtistRequest struct {
	Name string     `json:"nome"`
	Kind ArtistKind `json:"tipo"`
}

func (r ArtistRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("artist name is required")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown artist kind %q", r.Kind)
	}
	return nil
}

// AlbumRequest is the create/update payload for an album.
type AlbumRequest struct {
	Title       string `json:"titulo"`
	ReleaseYear int    `json:"anoLancamento,omitempty"`
}

func (r AlbumRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("album title is required")
	}
	if r.ReleaseYear < 0 {
		return fmt.Errorf("release year must not be negative")
	}
	return nil
}

package models

import (
	"encoding/json"
	"testing"
)

func TestArtistKind(t *testing.T) {
	t.Run("ParseArtistKind", func(t *testing.T) {
		tc := []struct {
			in      string
			want    ArtistKind
			wantErr bool
		}{
			{in: "SOLO", want: KindSolo},
			{in: " banda ", want: KindBand},
			{in: "Dupla", want: KindDuo},
			{in: "trio", wantErr: true},
			{in: "", wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.in, func(t *testing.T) {
				got, err := ParseArtistKind(tt.in)
				if (err != nil) != tt.wantErr {
					t.Fatalf("ParseArtistKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
				}
				if got != tt.want {
					t.Errorf("ParseArtistKind(%q) = %q, want %q", tt.in, got, tt.want)
				}
			})
		}
	})

	t.Run("String falls back for empty kind", func(t *testing.T) {
		if got := ArtistKind("").String(); got != "ARTISTA" {
			t.Errorf("String() = %q", got)
		}
	})
}

func TestUserHasRole(t *testing.T) {
	u := User{Username: "dj", Roles: "ROLE_USER, EDITOR"}
	if !u.HasRole("EDITOR") {
		t.Error("expected EDITOR role")
	}
	if u.HasRole("ADMIN") {
		t.Error("did not expect ADMIN role")
	}
}

func TestDecodeArtistDetail(t *testing.T) {
	body := `{"id":7,"nome":"Legião","tipo":"BANDA","albuns":[
		{"id":1,"titulo":"Dois","anoLancamento":1986,"capas":[{"id":3,"url":"http://minio/capa.jpg","contentType":"image/jpeg"}]},
		{"id":2,"titulo":"V","anoLancamento":1991,"capas":[]}
	]}`

	var artist ArtistDetail
	if err := json.Unmarshal([]byte(body), &artist); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if artist.Name != "Legião" || artist.Kind != KindBand || len(artist.Albums) != 2 {
		t.Fatalf("unexpected artist: %+v", artist)
	}

	cover, ok := artist.Albums[0].FirstCover()
	if !ok || cover.URL != "http://minio/capa.jpg" {
		t.Errorf("FirstCover() = %+v, %v", cover, ok)
	}

	if _, ok := artist.Albums[1].FirstCover(); ok {
		t.Error("album without covers should report none")
	}
}

func TestPage(t *testing.T) {
	tc := []struct {
		name    string
		page    Page[ArtistSummary]
		hasNext bool
		hasPrev bool
	}{
		{name: "first of three", page: Page[ArtistSummary]{Number: 0, TotalPages: 3}, hasNext: true},
		{name: "middle", page: Page[ArtistSummary]{Number: 1, TotalPages: 3}, hasNext: true, hasPrev: true},
		{name: "last", page: Page[ArtistSummary]{Number: 2, TotalPages: 3}, hasPrev: true},
		{name: "empty", page: Page[ArtistSummary]{}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.HasNext(); got != tt.hasNext {
				t.Errorf("HasNext() = %v, want %v", got, tt.hasNext)
			}
			if got := tt.page.HasPrev(); got != tt.hasPrev {
				t.Errorf("HasPrev() = %v, want %v", got, tt.hasPrev)
			}
		})
	}
}

func TestRequestValidation(t *testing.T) {
	if err := (ArtistRequest{Name: "Pitty", Kind: KindSolo}).Validate(); err != nil {
		t.Errorf("valid artist rejected: %v", err)
	}
	if err := (ArtistRequest{Name: "  ", Kind: KindSolo}).Validate(); err == nil {
		t.Error("blank artist name accepted")
	}
	if err := (ArtistRequest{Name: "Pitty", Kind: "TRIO"}).Validate(); err == nil {
		t.Error("unknown kind accepted")
	}
	if err := (AlbumRequest{Title: "Admirável Chip Novo", ReleaseYear: 2003}).Validate(); err != nil {
		t.Errorf("valid album rejected: %v", err)
	}
	if err := (AlbumRequest{}).Validate(); err == nil {
		t.Error("blank album title accepted")
	}
}

package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/soundwave/internal/models"
)

var _ list.Item = artistItem{}

// artistItem wraps [models.ArtistSummary] to implement [list.Item].
type artistItem struct {
	artist models.ArtistSummary
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	return fmt.Sprintf("%s • %d album(s)", i.artist.Kind, i.artist.AlbumCount)
}

func artistItems(artists []models.ArtistSummary) []list.Item {
	items := make([]list.Item, len(artists))
	for i, a := range artists {
		items[i] = artistItem{artist: a}
	}
	return items
}

package tasks

import (
	"fmt"

	"github.com/desertthunder/soundwave/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SaveArtist Phase = iota
	CreateAlbum
	UploadCovers
	ImportCatalog
)

func (p Phase) String() string {
	switch p {
	case SaveArtist:
		return "save_artist"
	case CreateAlbum:
		return "create_album"
	case UploadCovers:
		return "upload_covers"
	case ImportCatalog:
		return "import_catalog"
	default:
		return ""
	}
}

func savingArtistUpdate(form ArtistForm) ProgressUpdate {
	verb := "Creating"
	if form.ID != 0 {
		verb = "Updating"
	}
	return ProgressUpdate{
		Phase:   SaveArtist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s artist %s...", verb, form.Name),
	}
}

func savedArtistUpdate(a *models.ArtistDetail) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveArtist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Artist saved: %s (ID: %d)", a.Name, a.ID),
		Data:    a,
	}
}

func createAlbumUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Creating album %s...", step, total, title),
	}
}

func uploadCoversUpdate(step, total int, album *models.Album, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadCovers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading %d cover(s) for %s...", step, total, files, album.Title),
		Data:    album,
	}
}

func importCompletedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportCatalog,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}

func importFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportCatalog,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

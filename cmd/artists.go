package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/soundwave/internal/formatter"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/desertthunder/soundwave/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ArtistsList prints one page of artists.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	query := services.ArtistQuery{
		Name: cmd.String("name"),
		Page: cmd.Int("page"),
		Size: cmd.Int("size"),
		Sort: cmd.String("sort"),
	}
	r.logger.Debug("listing artists", "name", query.Name, "page", query.Page)

	page, err := r.api.ListArtists(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list artists: %w", err)
	}
	return formatter.WriteArtists(r.output, page, format)
}

// ArtistsShow prints an artist with its albums.
func (r *Runner) ArtistsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	artist, err := r.api.GetArtist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch artist %d: %w", id, err)
	}
	return formatter.WriteArtist(r.output, artist, format)
}

// ArtistsCreate creates an artist and any albums given with --album.
func (r *Runner) ArtistsCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	kind, err := models.ParseArtistKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	albums, err := parseAlbumFlags(cmd.StringSlice("album"))
	if err != nil {
		return err
	}

	form := tasks.ArtistForm{Name: cmd.String("name"), Kind: kind, Albums: albums}
	return r.saveArtist(ctx, form)
}

// ArtistsUpdate changes an artist. Fields not given keep their current value.
func (r *Runner) ArtistsUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	albums, err := parseAlbumFlags(cmd.StringSlice("album"))
	if err != nil {
		return err
	}

	current, err := r.api.GetArtist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch artist %d: %w", id, err)
	}

	form := tasks.ArtistForm{ID: id, Name: current.Name, Kind: current.Kind, Albums: albums}
	if name := cmd.String("name"); name != "" {
		form.Name = name
	}
	if raw := cmd.String("kind"); raw != "" {
		if form.Kind, err = models.ParseArtistKind(raw); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
	}
	return r.saveArtist(ctx, form)
}

func (r *Runner) saveArtist(ctx context.Context, form tasks.ArtistForm) error {
	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := r.printProgress(progressCh)

	result, err := r.engine.SaveArtist(ctx, form, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		if result != nil && result.Artist != nil {
			r.writePlain("\n⚠ Artist %s (ID: %d) saved, but not all albums were\n", result.Artist.Name, result.Artist.ID)
		}
		return err
	}

	verb := "Updated"
	if result.Created {
		verb = "Created"
	}
	r.writePlain("\n✓ %s artist %s (ID: %d)\n", verb, result.Artist.Name, result.Artist.ID)
	for _, album := range result.Albums {
		r.writePlain("  + %s [%d] (ID: %d, %d cover(s))\n", album.Title, album.ReleaseYear, album.ID, len(album.Covers))
	}
	return nil
}

// ArtistsImport saves every artist of a TOML catalogue file.
func (r *Runner) ArtistsImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	forms, err := tasks.LoadImportFile(path)
	if err != nil {
		return err
	}

	r.logger.Info("starting import", "path", path, "artists", len(forms))
	r.writePlain("Importing %d artist(s) from %s...\n\n", len(forms), path)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.printProgress(progressCh)

	opts := tasks.ImportOpts{Workers: cmd.Int("workers"), RateLimit: cmd.Float("rate")}
	result, err := r.engine.Import(ctx, forms, opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete!")
	r.writePlain("Succeeded: %d/%d\n", result.Succeeded, result.Total)

	if result.Failed > 0 {
		r.writePlain("\nFailed to import %d artist(s):\n", result.Failed)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - %s: %v\n", res.Form.Name, res.Error)
			}
		}
	}
	return nil
}

// printProgress drains progressCh onto the output. The returned channel closes once
// progressCh is closed and drained.
func (r *Runner) printProgress(progressCh <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.SaveArtist:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.CreateAlbum:
				r.writePlain("   💿 %s\n", update.Message)
			case tasks.UploadCovers:
				r.writePlain("   🖼  %s\n", update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return done
}

// parseAlbumFlags turns "title[:year]" values into album forms. A trailing ":year" is
// only split off when it parses as a number, so titles may contain colons.
func parseAlbumFlags(values []string) ([]tasks.AlbumForm, error) {
	albums := make([]tasks.AlbumForm, 0, len(values))
	for _, v := range values {
		title, year := strings.TrimSpace(v), 0
		if i := strings.LastIndex(title, ":"); i >= 0 {
			if y, err := strconv.Atoi(strings.TrimSpace(title[i+1:])); err == nil {
				title, year = strings.TrimSpace(title[:i]), y
			}
		}
		if title == "" {
			return nil, fmt.Errorf("%w: empty album title in %q", shared.ErrInvalidFlag, v)
		}
		albums = append(albums, tasks.AlbumForm{Title: title, ReleaseYear: year})
	}
	return albums, nil
}

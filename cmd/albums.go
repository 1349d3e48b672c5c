package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundwave/internal/formatter"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// AlbumsList prints one page of albums.
func (r *Runner) AlbumsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	query := services.AlbumQuery{
		ArtistID:   int64(cmd.Int("artist-id")),
		ArtistName: cmd.String("artist"),
		Page:       cmd.Int("page"),
		Size:       cmd.Int("size"),
		Sort:       cmd.String("sort"),
	}

	page, err := r.api.ListAlbums(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list albums: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	data, err := formatter.AlbumsToText(page)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// AlbumsShow prints one album with its cover URLs.
func (r *Runner) AlbumsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}

	album, err := r.api.GetAlbum(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch album %d: %w", id, err)
	}
	return r.writeAlbum(album)
}

// AlbumsCreate adds an album to an artist.
func (r *Runner) AlbumsCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	artistID := int64(cmd.Int("artist-id"))
	if artistID <= 0 {
		return fmt.Errorf("%w: --artist-id must be positive", shared.ErrInvalidFlag)
	}

	req := models.AlbumRequest{Title: cmd.String("title"), ReleaseYear: cmd.Int("year")}
	album, err := r.api.CreateAlbum(ctx, artistID, req)
	if err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}

	r.logger.Info("album created", "id", album.ID, "artist", artistID)
	r.writePlain("✓ Created album %s (ID: %d)\n", album.Title, album.ID)
	return nil
}

// AlbumsUpdate replaces an album's title and year.
func (r *Runner) AlbumsUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}

	req := models.AlbumRequest{Title: cmd.String("title"), ReleaseYear: cmd.Int("year")}
	album, err := r.api.UpdateAlbum(ctx, id, req)
	if err != nil {
		return fmt.Errorf("failed to update album %d: %w", id, err)
	}

	r.writePlain("✓ Updated album %s (ID: %d)\n", album.Title, album.ID)
	return nil
}

// AlbumsCovers uploads image files as covers of an album.
func (r *Runner) AlbumsCovers(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}

	paths := cmd.StringSlice("file")
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one --file", shared.ErrMissingArgument)
	}

	files := make([]services.CoverFile, 0, len(paths))
	for _, p := range paths {
		f, err := services.LoadCoverFile(p)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		files = append(files, f)
	}

	r.logger.Info("uploading covers", "album", id, "files", len(files))

	album, err := r.api.UploadCovers(ctx, id, files)
	if err != nil {
		return fmt.Errorf("failed to upload covers: %w", err)
	}

	r.writePlain("✓ Uploaded %d cover(s) to %s\n", len(files), album.Title)
	return r.writeAlbum(album)
}

func (r *Runner) writeAlbum(album *models.Album) error {
	r.writePlainHeader(album.Title)
	if album.ReleaseYear > 0 {
		r.writePlain("Year: %d\n", album.ReleaseYear)
	}
	r.writePlain("ID: %d\n", album.ID)
	r.writePlain("Covers: %d\n", len(album.Covers))
	for i, c := range album.Covers {
		r.writePlain("  %d. %s\n", i+1, c.URL)
	}
	return nil
}

// package formatter renders catalogue pages and artist details as CSV, Markdown or aligned plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
)

// Format is an output format accepted by the CLI's --format flag.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common alias (md, txt).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// ArtistsToCSV converts an artist page to CSV with columns: ID, Name, Kind, Albums
func ArtistsToCSV(page *models.Page[models.ArtistSummary]) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Kind", "Albums"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range page.Content {
		record := []string{
			strconv.FormatInt(a.ID, 10),
			a.Name,
			string(a.Kind),
			strconv.Itoa(a.AlbumCount),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ArtistsToMarkdown renders an artist page as a Markdown table
func ArtistsToMarkdown(page *models.Page[models.ArtistSummary]) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Artists\n\n")
	buf.WriteString("| ID | Name | Kind | Albums |\n")
	buf.WriteString("|---:|------|------|-------:|\n")
	for _, a := range page.Content {
		fmt.Fprintf(&buf, "| %d | %s | %s | %d |\n", a.ID, escapeCell(a.Name), a.Kind, a.AlbumCount)
	}
	buf.WriteString("\n")
	buf.WriteString(pageFooter(page.Number, page.TotalPages, page.TotalElements))
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// ArtistsToText renders an artist page as aligned columns
func ArtistsToText(page *models.Page[models.ArtistSummary]) ([]byte, error) {
	var buf bytes.Buffer

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tALBUMS")
	for _, a := range page.Content {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", a.ID, a.Name, a.Kind, a.AlbumCount)
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to align columns: %w", err)
	}

	if len(page.Content) == 0 {
		buf.WriteString("No artists found.\n")
	}
	buf.WriteString(pageFooter(page.Number, page.TotalPages, page.TotalElements))
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// AlbumsToText renders an album page as aligned columns
func AlbumsToText(page *models.Page[models.Album]) ([]byte, error) {
	var buf bytes.Buffer

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tCOVERS")
	for _, a := range page.Content {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", a.ID, a.Title, yearString(a.ReleaseYear), len(a.Covers))
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to align columns: %w", err)
	}

	buf.WriteString(pageFooter(page.Number, page.TotalPages, page.TotalElements))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// ArtistToMarkdown renders an artist with its albums. The first cover of each album is embedded as an image.
func ArtistToMarkdown(artist *models.ArtistDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", artist.Name)
	fmt.Fprintf(&buf, "**Kind**: %s\n", artist.Kind)
	fmt.Fprintf(&buf, "**Albums**: %d\n\n", len(artist.Albums))

	if len(artist.Albums) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("## Albums\n\n")
	for _, album := range artist.Albums {
		fmt.Fprintf(&buf, "### %s", album.Title)
		if album.ReleaseYear > 0 {
			fmt.Fprintf(&buf, " (%d)", album.ReleaseYear)
		}
		buf.WriteString("\n\n")
		if cover, ok := album.FirstCover(); ok {
			fmt.Fprintf(&buf, "![%s](%s)\n\n", album.Title, cover.URL)
		}
	}
	return buf.Bytes(), nil
}

// ArtistToText renders an artist with a numbered album list
func ArtistToText(artist *models.ArtistDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Artist: %s\n", artist.Name)
	fmt.Fprintf(&buf, "Kind: %s\n", artist.Kind)
	fmt.Fprintf(&buf, "Albums: %d\n\n", len(artist.Albums))

	for i, album := range artist.Albums {
		fmt.Fprintf(&buf, "%d. %s [%s]", i+1, album.Title, yearString(album.ReleaseYear))
		if n := len(album.Covers); n > 0 {
			fmt.Fprintf(&buf, " (%d cover(s))", n)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// WriteArtists renders page in format to w.
func WriteArtists(w io.Writer, page *models.Page[models.ArtistSummary], format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = ArtistsToCSV(page)
	case FormatMarkdown:
		data, err = ArtistsToMarkdown(page)
	case FormatJSON:
		data, err = shared.MarshalJSON(page, true)
	default:
		data, err = ArtistsToText(page)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteArtist renders an artist detail in format to w. CSV falls back to text.
func WriteArtist(w io.Writer, artist *models.ArtistDetail, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatMarkdown:
		data, err = ArtistToMarkdown(artist)
	case FormatJSON:
		data, err = shared.MarshalJSON(artist, true)
	default:
		data, err = ArtistToText(artist)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func pageFooter(number, totalPages, totalElements int) string {
	if totalPages == 0 {
		totalPages = 1
	}
	return fmt.Sprintf("Page %d of %d (%d total)", number+1, totalPages, totalElements)
}

func yearString(y int) string {
	if y <= 0 {
		return "----"
	}
	return strconv.Itoa(y)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

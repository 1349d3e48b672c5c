package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/repositories"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/session"
	"github.com/desertthunder/soundwave/internal/shared"
	tu "github.com/desertthunder/soundwave/internal/testing"
)

// newTestRunner wires a runner against a fresh fake catalogue. When authed is set the
// session starts with a valid token pair.
func newTestRunner(t *testing.T, authed bool) (*Runner, *bytes.Buffer, *tu.FakeCatalog) {
	t.Helper()

	fake := tu.NewFakeCatalog(t)
	initial := map[string]string{}
	if authed {
		access, refresh := fake.IssueTokens()
		initial[session.AccessTokenKey] = access
		initial[session.RefreshTokenKey] = refresh
	}

	logger := shared.NewLogger(io.Discard)
	m, err := session.NewManager(context.Background(), session.ManagerOpts{
		API:    session.NewAuthAPI(fake.BaseURL(), fake.Client()),
		Store:  repositories.NewMemoryTokenStore(initial),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(m.Close)

	output := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Session: m,
		API:     services.NewAPIService(fake.BaseURL(), session.NewClient(fake.Client(), m, logger)),
		Logger:  logger,
		Output:  output,
	})
	return r, output, fake
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := newApp(r)
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	return app.Run(context.Background(), append([]string{"soundwave"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			api := services.NewAPIService("http://example.com", nil)

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				API:    api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built from the API")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.engine != nil {
				t.Error("expected no engine without an API")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: tu.NewLimitedWriter(1, &bytes.Buffer{})})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		want := []string{"setup", "auth", "artists", "albums", "api", "listen", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command %d: expected %s, got %+v", i, want[i], cmd)
			}
		}
	})

	t.Run("Commands Without Session", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})

		for _, args := range [][]string{
			{"auth", "status"},
			{"auth", "refresh"},
			{"artists", "list"},
			{"albums", "show", "1"},
			{"api", "get", "/artistas"},
			{"tui"},
		} {
			t.Run(strings.Join(args, " "), func(t *testing.T) {
				if err := run(t, runner, args...); !errors.Is(err, shared.ErrServiceUnavailable) {
					t.Errorf("expected ErrServiceUnavailable, got %v", err)
				}
			})
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("Login", func(t *testing.T) {
		t.Run("Valid Credentials", func(t *testing.T) {
			r, output, _ := newTestRunner(t, false)

			if err := run(t, r, "auth", "login", "-u", tu.FakeUsername, "-p", tu.FakePassword); err != nil {
				t.Fatalf("login failed: %v", err)
			}
			if !strings.Contains(output.String(), "Logged in as "+tu.FakeUsername) {
				t.Errorf("unexpected output %q", output.String())
			}
			if !r.session.Snapshot().IsAuthenticated() {
				t.Error("expected session to be authenticated")
			}
		})

		t.Run("Wrong Password", func(t *testing.T) {
			r, _, _ := newTestRunner(t, false)

			err := run(t, r, "auth", "login", "-u", tu.FakeUsername, "-p", "nope")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if r.session.Snapshot().IsAuthenticated() {
				t.Error("expected session to stay logged out")
			}
		})

		t.Run("Missing Password", func(t *testing.T) {
			t.Setenv("SOUNDWAVE_PASSWORD", "")
			r, _, _ := newTestRunner(t, false)

			if err := run(t, r, "auth", "login", "-u", tu.FakeUsername); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		r, output, _ := newTestRunner(t, true)

		if err := run(t, r, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if r.session.Snapshot().IsAuthenticated() {
			t.Error("expected session to be cleared")
		}
		if !strings.Contains(output.String(), "Logged out") {
			t.Errorf("unexpected output %q", output.String())
		}

		output.Reset()
		if err := run(t, r, "auth", "logout"); err != nil {
			t.Fatalf("second logout failed: %v", err)
		}
		if !strings.Contains(output.String(), "Already logged out") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Status", func(t *testing.T) {
		t.Run("Logged Out", func(t *testing.T) {
			r, output, _ := newTestRunner(t, false)

			if err := run(t, r, "auth", "status"); err != nil {
				t.Fatalf("status failed: %v", err)
			}
			if !strings.Contains(output.String(), "Not authenticated") {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("Expired Access Token Is Refreshed", func(t *testing.T) {
			r, output, fake := newTestRunner(t, true)
			fake.ExpireAccessTokens()

			if err := run(t, r, "auth", "status", "--json"); err != nil {
				t.Fatalf("status failed: %v", err)
			}
			if !strings.Contains(output.String(), `"tokenAccepted": true`) {
				t.Errorf("expected the refreshed token to be accepted, got %s", output.String())
			}
		})

		t.Run("Revoked Session Logs Out", func(t *testing.T) {
			r, output, fake := newTestRunner(t, true)
			fake.ExpireAccessTokens()
			fake.RevokeRefreshTokens()

			if err := run(t, r, "auth", "status"); err != nil {
				t.Fatalf("status failed: %v", err)
			}
			if !strings.Contains(output.String(), "Not authenticated") {
				t.Errorf("unexpected output %q", output.String())
			}
			if r.session.Snapshot().IsAuthenticated() {
				t.Error("expected the failed refresh to end the session")
			}
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("With Session", func(t *testing.T) {
			r, output, _ := newTestRunner(t, true)
			before := r.session.Snapshot().AccessToken()

			if err := run(t, r, "auth", "refresh"); err != nil {
				t.Fatalf("refresh failed: %v", err)
			}
			if r.session.Snapshot().AccessToken() == before {
				t.Error("expected a new access token")
			}
			if !strings.Contains(output.String(), "refreshed") {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("Without Session", func(t *testing.T) {
			r, _, _ := newTestRunner(t, false)

			if err := run(t, r, "auth", "refresh"); !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
		})
	})
}

func TestArtistCommands(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		fake.AddArtist("Pitty", models.KindSolo)
		fake.AddArtist("Titãs", models.KindBand)

		if err := run(t, r, "artists", "list", "--name", "pit"); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Pitty") || strings.Contains(got, "Titãs") {
			t.Errorf("expected only Pitty, got %q", got)
		}
		if !strings.Contains(got, "Page 1 of 1 (1 total)") {
			t.Errorf("expected page footer, got %q", got)
		}
	})

	t.Run("List As CSV", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		fake.AddArtist("Pitty", models.KindSolo)

		if err := run(t, r, "artists", "list", "--format", "csv"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.HasPrefix(output.String(), "ID,Name,Kind,Albums\n") {
			t.Errorf("expected CSV header, got %q", output.String())
		}
	})

	t.Run("List With Unknown Format", func(t *testing.T) {
		r, _, _ := newTestRunner(t, true)

		if err := run(t, r, "artists", "list", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Show", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		id := fake.AddArtist("Pitty", models.KindSolo, models.Album{Title: "Chiaroscuro", ReleaseYear: 2009})

		if err := run(t, r, "artists", "show", "--format", "markdown", itoa(id)); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), "# Pitty") || !strings.Contains(output.String(), "### Chiaroscuro (2009)") {
			t.Errorf("unexpected markdown %q", output.String())
		}
	})

	t.Run("Show Errors", func(t *testing.T) {
		r, _, _ := newTestRunner(t, true)

		if err := run(t, r, "artists", "show", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := run(t, r, "artists", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := run(t, r, "artists", "show", "999"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Create With Albums", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)

		err := run(t, r, "artists", "create", "-n", "Pitty", "-k", "solo", "-a", "Admirável Chip Novo:2003", "-a", "Anacrônico")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		artist, ok := fake.ArtistByName("Pitty")
		if !ok {
			t.Fatal("expected artist to be created")
		}
		if artist.Kind != models.KindSolo || len(artist.Albums) != 2 {
			t.Errorf("unexpected artist %+v", artist)
		}
		if !strings.Contains(output.String(), "Created artist Pitty") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Create With Bad Kind", func(t *testing.T) {
		r, _, _ := newTestRunner(t, true)

		if err := run(t, r, "artists", "create", "-n", "Pitty", "-k", "trio"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Update Keeps Unset Fields", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		id := fake.AddArtist("Titas", models.KindBand)

		if err := run(t, r, "artists", "update", "-n", "Titãs", itoa(id)); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		artist, _ := fake.Artist(id)
		if artist.Name != "Titãs" || artist.Kind != models.KindBand {
			t.Errorf("unexpected artist %+v", artist)
		}
		if !strings.Contains(output.String(), "Updated artist Titãs") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Import", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		dir := t.TempDir()
		tu.MustWriteFile(t, filepath.Join(dir, "front.png"), []byte("\x89PNG\r\n\x1a\nfake"))
		path := filepath.Join(dir, "catalog.toml")
		tu.MustWriteFile(t, path, []byte(`
[[artist]]
name = "Pitty"
kind = "SOLO"

  [[artist.album]]
  title = "Chiaroscuro"
  year = 2009
  covers = ["front.png"]

[[artist]]
id = 999
name = "Ghost"
kind = "BANDA"
`))

		if err := run(t, r, "artists", "import", "--rate", "100", path); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Succeeded: 1/2") {
			t.Errorf("expected one success, got %q", got)
		}
		if !strings.Contains(got, "Ghost") {
			t.Errorf("expected the failed artist to be listed, got %q", got)
		}

		artist, ok := fake.ArtistByName("Pitty")
		if !ok || len(artist.Albums) != 1 {
			t.Fatalf("expected Pitty with one album, got %+v", artist)
		}
		if uploads := fake.Uploads(artist.Albums[0].ID); len(uploads) != 1 || uploads[0] != "front.png" {
			t.Errorf("expected front.png upload, got %v", uploads)
		}
	})

	t.Run("Import Missing File", func(t *testing.T) {
		r, _, _ := newTestRunner(t, true)

		err := run(t, r, "artists", "import", filepath.Join(t.TempDir(), "missing.toml"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAlbumCommands(t *testing.T) {
	t.Run("List For Artist", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		id := fake.AddArtist("Pitty", models.KindSolo,
			models.Album{Title: "Chiaroscuro", ReleaseYear: 2009},
			models.Album{Title: "Matriz", ReleaseYear: 2019},
		)
		fake.AddArtist("Titãs", models.KindBand, models.Album{Title: "Cabeça Dinossauro", ReleaseYear: 1986})

		if err := run(t, r, "albums", "list", "--artist-id", itoa(id)); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Chiaroscuro") || !strings.Contains(got, "Matriz") {
			t.Errorf("expected both albums, got %q", got)
		}
		if strings.Contains(got, "Cabeça Dinossauro") {
			t.Errorf("expected other artists' albums to be filtered, got %q", got)
		}
	})

	t.Run("Create Then Show", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		artistID := fake.AddArtist("Pitty", models.KindSolo)

		if err := run(t, r, "albums", "create", "--artist-id", itoa(artistID), "-t", "Matriz", "-y", "2019"); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		artist, _ := fake.Artist(artistID)
		if len(artist.Albums) != 1 {
			t.Fatalf("expected one album, got %+v", artist.Albums)
		}

		output.Reset()
		if err := run(t, r, "albums", "show", itoa(artist.Albums[0].ID)); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), "Matriz") || !strings.Contains(output.String(), "Year: 2019") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Update", func(t *testing.T) {
		r, _, fake := newTestRunner(t, true)
		artistID := fake.AddArtist("Pitty", models.KindSolo, models.Album{Title: "Matrix", ReleaseYear: 2019})
		artist, _ := fake.Artist(artistID)

		if err := run(t, r, "albums", "update", "-t", "Matriz", "-y", "2019", itoa(artist.Albums[0].ID)); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		artist, _ = fake.Artist(artistID)
		if artist.Albums[0].Title != "Matriz" {
			t.Errorf("expected title to change, got %q", artist.Albums[0].Title)
		}
	})

	t.Run("Covers", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		artistID := fake.AddArtist("Pitty", models.KindSolo, models.Album{Title: "Matriz", ReleaseYear: 2019})
		artist, _ := fake.Artist(artistID)
		albumID := artist.Albums[0].ID

		dir := t.TempDir()
		front := filepath.Join(dir, "front.jpg")
		back := filepath.Join(dir, "back.jpg")
		tu.MustWriteFile(t, front, []byte("jpeg"))
		tu.MustWriteFile(t, back, []byte("jpeg"))

		if err := run(t, r, "albums", "covers", "--file", front, "--file", back, itoa(albumID)); err != nil {
			t.Fatalf("covers failed: %v", err)
		}
		if uploads := fake.Uploads(albumID); len(uploads) != 2 {
			t.Errorf("expected 2 uploads, got %v", uploads)
		}
		if !strings.Contains(output.String(), "Uploaded 2 cover(s) to Matriz") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Covers With Missing File", func(t *testing.T) {
		r, _, _ := newTestRunner(t, true)

		err := run(t, r, "albums", "covers", "--file", filepath.Join(t.TempDir(), "nope.jpg"), "1")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)
		fake.AddArtist("Pitty", models.KindSolo)

		if err := run(t, r, "api", "get", "--json", "artistas"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !strings.Contains(output.String(), `"nome":"Pitty"`) {
			t.Errorf("expected compact JSON, got %q", output.String())
		}
	})

	t.Run("Get Unauthenticated", func(t *testing.T) {
		r, _, _ := newTestRunner(t, false)

		if err := run(t, r, "api", "get", "/artistas"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Post", func(t *testing.T) {
		r, output, fake := newTestRunner(t, true)

		if err := run(t, r, "api", "post", "-d", `{"nome":"Pitty","tipo":"SOLO"}`, "/artistas"); err != nil {
			t.Fatalf("post failed: %v", err)
		}
		if _, ok := fake.ArtistByName("Pitty"); !ok {
			t.Error("expected artist to be created")
		}
		if !strings.Contains(output.String(), `"nome": "Pitty"`) {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Post Invalid JSON", func(t *testing.T) {
		r, _, _ := newTestRunner(t, true)

		if err := run(t, r, "api", "post", "-d", "{nope", "/artistas"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})

		if err := run(t, runner, "setup", "config", "-c", path); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "[notifications]") {
			t.Error("expected the default config to be written")
		}
		if err := run(t, runner, "setup", "config", "-c", path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected an existing file to be refused, got %v", err)
		}
	})

	t.Run("Database", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "tokens.db")
		tu.MustWriteFile(t, path, []byte("[storage]\ndriver = \"sqlite\"\npath = \""+filepath.ToSlash(dbPath)+"\"\n"))

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

		if err := run(t, runner, "setup", "database", "-c", path); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("expected database file, got %v", err)
		}
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("Missing File Uses Defaults", func(t *testing.T) {
		config, err := loadConfig(filepath.Join(t.TempDir(), "none.toml"))
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if config.Notifications.Topic != "/topic/novos-albuns" {
			t.Errorf("unexpected topic %q", config.Notifications.Topic)
		}
	})

	t.Run("Environment Overrides File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		tu.MustWriteFile(t, path, []byte("[api]\nbase_url = \"http://file.example/api\"\n"))
		t.Setenv("SOUNDWAVE_API_BASE_URL", "http://env.example/api")

		config, err := loadConfig(path)
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if config.API.BaseURL != "http://env.example/api" {
			t.Errorf("expected env override, got %q", config.API.BaseURL)
		}
	})

	t.Run("Invalid Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		tu.MustWriteFile(t, path, []byte("[notifications]\nbroker = \"kafka\"\n"))

		if _, err := loadConfig(path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestOpenTokenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		store, closeStore, err := openTokenStore(ctx, shared.StorageConfig{Driver: shared.StorageMemory})
		if err != nil {
			t.Fatalf("openTokenStore failed: %v", err)
		}
		defer closeStore()

		if _, ok := store.(*repositories.MemoryTokenStore); !ok {
			t.Errorf("expected memory store, got %T", store)
		}
	})

	t.Run("SQLite Is Migrated", func(t *testing.T) {
		store, closeStore, err := openTokenStore(ctx, shared.StorageConfig{Driver: shared.StorageSQLite, Path: shared.MemoryDSN})
		if err != nil {
			t.Fatalf("openTokenStore failed: %v", err)
		}
		defer closeStore()

		if err := store.Save(ctx, map[string]string{session.AccessTokenKey: "a"}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Load(ctx, session.AccessTokenKey)
		if err != nil || got[session.AccessTokenKey] != "a" {
			t.Errorf("expected stored token, got %v (%v)", got, err)
		}
	})
}

func TestNewBroker(t *testing.T) {
	tc := []struct {
		name    string
		broker  string
		wantErr bool
	}{
		{name: "stomp", broker: shared.BrokerSTOMP},
		{name: "mqtt", broker: shared.BrokerMQTT},
		{name: "empty defaults to stomp", broker: ""},
		{name: "unknown", broker: "amqp", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			b, err := newBroker(shared.NotificationsConfig{Broker: tt.broker, URL: "ws://localhost:1"}, shared.NewLogger(io.Discard))
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Errorf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil || b == nil {
				t.Errorf("expected broker, got %v (%v)", b, err)
			}
		})
	}
}

func TestParseAlbumFlags(t *testing.T) {
	tc := []struct {
		name    string
		in      []string
		want    []string
		years   []int
		wantErr bool
	}{
		{name: "title only", in: []string{"Matriz"}, want: []string{"Matriz"}, years: []int{0}},
		{name: "title and year", in: []string{"Matriz:2019"}, want: []string{"Matriz"}, years: []int{2019}},
		{name: "colon in title", in: []string{"Volume: Um"}, want: []string{"Volume: Um"}, years: []int{0}},
		{name: "colon in title with year", in: []string{"Volume: Um:1999"}, want: []string{"Volume: Um"}, years: []int{1999}},
		{name: "empty title", in: []string{":2019"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			albums, err := parseAlbumFlags(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Errorf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			for i, a := range albums {
				if a.Title != tt.want[i] || a.ReleaseYear != tt.years[i] {
					t.Errorf("album %d = %+v, want %s/%d", i, a, tt.want[i], tt.years[i])
				}
			}
		})
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

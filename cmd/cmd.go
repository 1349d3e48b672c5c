// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, csv, markdown, json)",
		Value:   "text",
	}
}

func pageFlags(sort string) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Zero-based page number",
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "Page size",
			Value: 9,
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "Sort expression (field,direction)",
			Value: sort,
		},
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the token database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the catalogue session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Exchange username and password for a token pair",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Sources:  cli.EnvVars("SOUNDWAVE_USERNAME"),
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("SOUNDWAVE_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored tokens",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the current session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh token for a new access token",
				Action: r.AuthRefresh,
			},
		},
	}
}

// artistsCommand handles artist resources
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "artists",
		Aliases: []string{"artist", "ar"},
		Usage:   "Browse and edit artists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List artists, optionally filtered by name",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Filter by name",
					},
					formatFlag(),
				}, pageFlags("nome,asc")...),
				Action: r.ArtistsList,
			},
			{
				Name:  "show",
				Usage: "Show an artist with its albums",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{formatFlag()},
				Action: r.ArtistsShow,
			},
			{
				Name:  "create",
				Usage: "Create an artist, optionally with albums",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Artist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Artist kind (SOLO, BANDA, DUPLA)",
						Value:   "SOLO",
					},
					&cli.StringSliceFlag{
						Name:    "album",
						Aliases: []string{"a"},
						Usage:   "Album to add as title[:year] (repeatable)",
					},
				},
				Action: r.ArtistsCreate,
			},
			{
				Name:  "update",
				Usage: "Rename or reclassify an artist and add albums",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "New artist name (default: unchanged)",
					},
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "New artist kind (default: unchanged)",
					},
					&cli.StringSliceFlag{
						Name:    "album",
						Aliases: []string{"a"},
						Usage:   "Album to add as title[:year] (repeatable)",
					},
				},
				Action: r.ArtistsUpdate,
			},
			{
				Name:  "import",
				Usage: "Create or update every artist in a TOML catalogue file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent artist saves",
						Value:   3,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Artist saves started per second",
						Value: 5,
					},
				},
				Action: r.ArtistsImport,
			},
		},
	}
}

// albumsCommand handles album resources
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "albums",
		Aliases: []string{"album", "al"},
		Usage:   "Browse and edit albums",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List albums, optionally for one artist",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "artist-id",
						Usage: "Only albums of this artist",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only albums of artists matching this name",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				}, pageFlags("anoLancamento,asc")...),
				Action: r.AlbumsList,
			},
			{
				Name:  "show",
				Usage: "Show one album with its covers",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.AlbumsShow,
			},
			{
				Name:  "create",
				Usage: "Add an album to an artist",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "artist-id",
						Usage:    "Owning artist",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Album title",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "year",
						Aliases: []string{"y"},
						Usage:   "Release year",
					},
				},
				Action: r.AlbumsCreate,
			},
			{
				Name:  "update",
				Usage: "Change an album's title or release year",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Album title",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "year",
						Aliases: []string{"y"},
						Usage:   "Release year",
					},
				},
				Action: r.AlbumsUpdate,
			},
			{
				Name:  "covers",
				Usage: "Upload cover images to an album",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "file",
						Usage:    "Image file to upload (repeatable)",
						Required: true,
					},
				},
				Action: r.AlbumsCovers,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the catalogue API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// listenCommand follows the new album topic
func listenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Print new album notifications as they arrive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "broker",
				Usage: "Broker kind (stomp or mqtt), overrides config",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Broker URL, overrides config",
			},
			&cli.StringFlag{
				Name:  "topic",
				Usage: "Topic to subscribe to, overrides config",
			},
		},
		Action: r.Listen,
	}
}

// tuiCommand returns the top-level TUI command for interactive catalogue browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalogue browser",
		Action:  r.TUI,
	}
}

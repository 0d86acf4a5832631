// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles database initialization and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// serveCommand starts the HTTP API server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the mixspace HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the configured listen port",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage platform authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with a platform using OAuth2",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "platform"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show authentication state for each platform",
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Discard a platform's stored session",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "platform"},
				},
				Action: r.AuthLogout,
			},
		},
	}
}

// importCommand copies a platform playlist into the local library.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a playlist from a platform",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "platform"},
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the import result as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.ImportPlaylist,
	}
}

// resyncCommand re-fetches every platform-sourced playlist.
func resyncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "resync",
		Aliases: []string{"sync"},
		Usage:   "Re-fetch all platform-sourced playlists and replace their tracks",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output per-playlist outcomes as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Resync,
	}
}

// scoreCommand computes a playlist's metadata completeness score.
func scoreCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Compute a playlist's completeness score",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.ScorePlaylist,
	}
}

// exportCommand writes a playlist to local files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a playlist's tracks to CSV or text",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (csv or text)",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path without extension",
			},
		},
		Action: r.ExportPlaylist,
	}
}

// browseCommand returns the top-level TUI command for browsing the library.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Browse imported playlists interactively",
		Action:  r.Browse,
	}
}

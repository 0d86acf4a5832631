package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixspace/internal/auth"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/repositories"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
	"github.com/desertthunder/mixspace/internal/tasks"
)

// defaultVisitorKey is the session key CLI logins are stored under.
const defaultVisitorKey = "default"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// SetLogger swaps the runner's logger. Used by the TUI to redirect logs away
// from the interactive screen.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, importCommand, resyncCommand, scoreCommand, exportCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// stack wires the repositories, token managers, platform clients, and task
// layer a command needs on top of one database handle.
type stack struct {
	db        *sql.DB
	tracks    *repositories.TrackRepository
	playlists *repositories.PlaylistRepository
	managers  map[models.Platform]*auth.Manager
	spotify   *services.SpotifyService
	services  map[models.Platform]services.Service
	itunes    *services.ITunesService
	enricher  *tasks.Enricher
	importer  *tasks.Importer
	scorer    *tasks.Scorer
	tokens    cliTokens
}

func (s *stack) Close() error {
	return s.db.Close()
}

// buildStack opens the configured database and assembles the full service
// graph. The caller owns the returned stack and must Close it.
func (r *Runner) buildStack() (*stack, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	tracks := repositories.NewTrackRepository(db)
	playlists := repositories.NewPlaylistRepository(db)

	managers := r.buildManagers()
	spotifyManager := managers[models.PlatformSpotify]

	spotify := services.NewSpotifyService("", r.logger)
	svcs := map[models.Platform]services.Service{
		models.PlatformSpotify: spotify,
		models.PlatformTidal:   services.NewTidalService("", "", r.logger),
		models.PlatformYouTube: services.NewYouTubeService("", r.config.Credentials.YouTube.APIKey, r.logger),
	}

	var enrichSpotify *services.SpotifyService
	var spotifyTokens tasks.ClientTokenSource
	if r.config.Enrichment.Spotify {
		enrichSpotify = spotify
		spotifyTokens = spotifyManager
	}
	var mb *services.MusicBrainzService
	if r.config.Enrichment.MusicBrainz {
		mb = services.NewMusicBrainzService("")
	}
	var lastfm *services.LastFMService
	if r.config.Enrichment.LastFM {
		lastfm = services.NewLastFMService("", r.config.Credentials.LastFM.APIKey)
	}

	enricher := tasks.NewEnricher(r.config.Enrichment, tracks, enrichSpotify, spotifyTokens, mb, lastfm, r.logger)
	reconciler := tasks.NewReconciler(tracks, enricher, r.logger)
	covers := tasks.NewCoverDownloader(r.config.Server.CoversDir, playlists, r.logger)
	importer := tasks.NewImporter(playlists, reconciler, svcs, covers, r.logger)
	scorer := tasks.NewScorer(playlists, r.logger)

	return &stack{
		db:        db,
		tracks:    tracks,
		playlists: playlists,
		managers:  managers,
		spotify:   spotify,
		services:  svcs,
		itunes:    services.NewITunesService(""),
		enricher:  enricher,
		importer:  importer,
		scorer:    scorer,
		tokens:    cliTokens{managers: managers},
	}, nil
}

// buildManagers creates the per-platform token managers, backed by file
// session stores so CLI logins survive across invocations.
func (r *Runner) buildManagers() map[models.Platform]*auth.Manager {
	spotifyStore := newFileStore(r.sessionPath(models.PlatformSpotify), r.logger)
	tidalStore := newFileStore(r.sessionPath(models.PlatformTidal), r.logger)

	return map[models.Platform]*auth.Manager{
		models.PlatformSpotify: auth.NewManager(r.config.Credentials.Spotify, auth.SpotifyEndpoint, auth.SpotifyScopes, spotifyStore, r.logger),
		models.PlatformTidal:   auth.NewManager(r.config.Credentials.Tidal, auth.TidalEndpoint, auth.TidalScopes, tidalStore, r.logger),
	}
}

// sessionPath returns the on-disk location of a platform's CLI session file.
func (r *Runner) sessionPath(platform models.Platform) string {
	dir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".mixspace")
	}
	return filepath.Join(dir, fmt.Sprintf("%s_sessions.json", platform))
}

// cliTokens adapts the token managers to [tasks.TokenSource] for command-line
// import and re-sync runs. YouTube requests carry an API key on the client
// itself, and Tidal public data falls back to an app-level token.
type cliTokens struct {
	managers map[models.Platform]*auth.Manager
}

var _ tasks.TokenSource = cliTokens{}

func (t cliTokens) PlatformToken(ctx context.Context, platform models.Platform) (string, bool) {
	if platform == models.PlatformYouTube {
		return "", true
	}
	manager, ok := t.managers[platform]
	if !ok {
		return "", false
	}
	if token, ok := manager.ValidToken(ctx, defaultVisitorKey); ok {
		return token, true
	}
	if platform == models.PlatformTidal {
		if token, err := manager.ClientToken(ctx); err == nil {
			return token, true
		}
	}
	return "", false
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixspace/internal/shared"
	"github.com/desertthunder/mixspace/internal/tasks"
)

// cliUserID owns rows created from the command line.
const cliUserID int64 = 1

// ImportPlaylist copies one platform playlist into the local library.
func (r *Runner) ImportPlaylist(ctx context.Context, cmd *cli.Command) error {
	platform, err := parsePlatform(cmd.StringArg("platform"))
	if err != nil {
		return err
	}
	externalID := cmd.StringArg("id")
	if externalID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	stack, err := r.buildStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	stack.enricher.Start(ctx)
	defer stack.enricher.Stop()

	token, ok := stack.tokens.PlatformToken(ctx, platform)
	if !ok {
		return fmt.Errorf("%w: run `mixspace auth login %s` first", shared.ErrNotAuthenticated, platform)
	}

	progress, done := r.printProgress()
	result, err := stack.importer.Import(ctx, platform, token, cliUserID, externalID, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	switch {
	case result.Skipped:
		return r.writePlain("Playlist already imported (id %d)\n", result.PlaylistID)
	case !result.Success:
		return r.writePlain("%s\n", result.Message)
	default:
		return r.writePlain("✓ Imported %q: %d/%d tracks (playlist id %d)\n",
			result.Title, result.ImportedTracks, result.TotalTracks, result.PlaylistID)
	}
}

// printProgress drains a progress channel to the output writer. The caller
// closes the channel and then waits on done.
func (r *Runner) printProgress() (chan tasks.ProgressUpdate, <-chan struct{}) {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	return progress, done
}

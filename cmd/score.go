package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixspace/internal/shared"
)

// parsePlaylistID parses a numeric playlist id argument.
func parsePlaylistID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid playlist id %q", shared.ErrInvalidInput, raw)
	}
	return id, nil
}

// ScorePlaylist computes and persists a playlist's completeness score.
func (r *Runner) ScorePlaylist(ctx context.Context, cmd *cli.Command) error {
	id, err := parsePlaylistID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	stack, err := r.buildStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	score, err := stack.scorer.Score(id)
	if err != nil {
		return err
	}

	playlist, err := stack.playlists.Get(id)
	if err != nil {
		return err
	}

	return r.writePlain("Playlist %q scored %d/100 (status %s)\n", playlist.Title, score, playlist.Status)
}

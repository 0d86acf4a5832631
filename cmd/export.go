package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixspace/internal/formatter"
	"github.com/desertthunder/mixspace/internal/shared"
)

// ExportPlaylist writes a playlist's tracks to local files.
func (r *Runner) ExportPlaylist(ctx context.Context, cmd *cli.Command) error {
	id, err := parsePlaylistID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	stack, err := r.buildStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	playlist, err := stack.playlists.Get(id)
	if err != nil {
		return err
	}
	tracks, err := stack.playlists.Tracks(id)
	if err != nil {
		return err
	}

	base := cmd.String("output")
	if base == "" {
		base = fmt.Sprintf("playlist_%d", id)
	}

	switch format := cmd.String("format"); format {
	case "csv":
		result, err := formatter.WriteCSVExport(playlist, tracks, base)
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %s\n", result.TracksFile)
		return r.writePlain("✓ Wrote %s\n", result.MetadataFile)
	case "text":
		path, err := formatter.WriteTextExport(playlist, tracks, base+".txt")
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %s\n", path)
	default:
		return fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, format)
	}
}

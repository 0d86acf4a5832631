package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Resync re-fetches every platform-sourced playlist and replaces its stored
// membership, reporting a per-playlist outcome.
func (r *Runner) Resync(ctx context.Context, cmd *cli.Command) error {
	stack, err := r.buildStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	stack.enricher.Start(ctx)
	defer stack.enricher.Stop()

	progress, done := r.printProgress()
	outcomes, err := stack.importer.ResyncAll(ctx, stack.tokens, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(outcomes, cmd.Bool("pretty"))
	}

	synced := 0
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			r.writePlain("✗ %s: %s\n", outcome.Title, outcome.Error)
			continue
		}
		synced++
		r.writePlain("✓ %s (%d tracks)\n", outcome.Title, outcome.Synced)
	}

	return r.writePlainln("Re-synced %d of %d playlists", synced, len(outcomes))
}

package tasks

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

// ScoreStore is the subset of the playlist repository the scorer needs.
type ScoreStore interface {
	Get(id int64) (*models.Playlist, error)
	Tracks(playlistID int64) ([]*models.Track, error)
	UpdateScore(id int64, score int) error
}

// Scorer assigns a 0-100 quality score to a playlist from its metadata
// completeness. Crossing [models.FeatureScoreThreshold] promotes the
// playlist to featured status.
type Scorer struct {
	playlists ScoreStore
	logger    *log.Logger
}

// NewScorer creates a Scorer.
func NewScorer(playlists ScoreStore, logger *log.Logger) *Scorer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scorer{playlists: playlists, logger: logger}
}

// Score computes, persists, and returns a playlist's quality score.
func (s *Scorer) Score(playlistID int64) (int, error) {
	playlist, err := s.playlists.Get(playlistID)
	if err != nil {
		return 0, err
	}

	tracks, err := s.playlists.Tracks(playlistID)
	if err != nil {
		return 0, fmt.Errorf("failed to load tracks: %w", err)
	}

	score := computeScore(playlist, tracks)
	if err := s.playlists.UpdateScore(playlistID, score); err != nil {
		return 0, err
	}

	s.logger.Info("scored playlist", "playlist", playlistID, "title", playlist.Title, "score", score)
	return score, nil
}

// computeScore weighs size, metadata coverage, and presentation.
//
//	up to 20 pts: track count (1 pt per track)
//	up to 30 pts: genre coverage across tracks
//	up to 15 pts: artwork coverage
//	up to 15 pts: ISRC coverage
//	10 pts: non-empty description
//	10 pts: cover image present
func computeScore(playlist *models.Playlist, tracks []*models.Track) int {
	score := 0

	count := len(tracks)
	if count > 20 {
		score += 20
	} else {
		score += count
	}

	if count > 0 {
		withGenre, withArtwork, withISRC := 0, 0, 0
		for _, track := range tracks {
			if track.Genre != "" {
				withGenre++
			}
			if track.Artwork != "" {
				withArtwork++
			}
			if track.ISRC != "" {
				withISRC++
			}
		}
		score += withGenre * 30 / count
		score += withArtwork * 15 / count
		score += withISRC * 15 / count
	}

	if playlist.Description != "" {
		score += 10
	}
	if playlist.CoverImage != "" {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

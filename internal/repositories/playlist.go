package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

const playlistColumns = `playlist_id, user_id, title, description, space_type,
	status_flag, source_type, source_platform, external_id, cover_image,
	ai_score, created_at, updated_at`

// PlaylistRepository persists playlists and their ordered track membership.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist and fills in its generated id.
// A (user, external id) collision surfaces as [shared.ErrDuplicate].
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if playlist.Space == "" {
		playlist.Space = models.SpaceExplore
	}
	if playlist.Status == "" {
		playlist.Status = models.StatusPending
	}
	if playlist.Source == "" {
		playlist.Source = models.SourceManual
	}
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	query := `
		INSERT INTO playlists (user_id, title, description, space_type, status_flag,
			source_type, source_platform, external_id, cover_image, ai_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		playlist.UserID,
		playlist.Title,
		nullable(playlist.Description),
		string(playlist.Space),
		string(playlist.Status),
		string(playlist.Source),
		nullable(string(playlist.SourcePlatform)),
		nullable(playlist.ExternalID),
		nullable(playlist.CoverImage),
		playlist.Score,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: playlist with external id %q", shared.ErrDuplicate, playlist.ExternalID)
		}
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	playlist.ID = id

	return nil
}

// Get retrieves a playlist by id.
func (r *PlaylistRepository) Get(id int64) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE playlist_id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByUserExternalID retrieves a playlist by owner and platform external id.
// The importer uses this as its dedup check before fetching anything.
func (r *PlaylistRepository) GetByUserExternalID(userID int64, externalID string) (*models.Playlist, error) {
	if externalID == "" {
		return nil, shared.ErrPlaylistNotFound
	}

	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE user_id = ? AND external_id = ?`
	return r.scanOne(r.db.QueryRow(query, userID, externalID))
}

// Update rewrites the mutable columns of an existing playlist.
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.UpdatedAt = now

	query := `
		UPDATE playlists
		SET title = ?, description = ?, space_type = ?, status_flag = ?,
			source_type = ?, source_platform = ?, external_id = ?,
			cover_image = ?, ai_score = ?, updated_at = ?
		WHERE playlist_id = ?
	`

	result, err := r.db.Exec(query,
		playlist.Title,
		nullable(playlist.Description),
		string(playlist.Space),
		string(playlist.Status),
		string(playlist.Source),
		nullable(string(playlist.SourcePlatform)),
		nullable(playlist.ExternalID),
		nullable(playlist.CoverImage),
		playlist.Score,
		now,
		playlist.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	return rowsOrNotFound(result, shared.ErrPlaylistNotFound)
}

// UpdateStatus sets the workflow status flag.
func (r *PlaylistRepository) UpdateStatus(id int64, status models.Status) error {
	return r.setColumn(id, "status_flag", string(status))
}

// UpdateSpace moves a playlist between browsing spaces.
func (r *PlaylistRepository) UpdateSpace(id int64, space models.Space) error {
	return r.setColumn(id, "space_type", string(space))
}

// UpdateScore stores a quality score and promotes the playlist to featured
// when it crosses the threshold.
func (r *PlaylistRepository) UpdateScore(id int64, score int) error {
	query := `
		UPDATE playlists
		SET ai_score = ?,
			status_flag = CASE WHEN ? >= ? THEN ? ELSE status_flag END,
			updated_at = ?
		WHERE playlist_id = ?
	`

	result, err := r.db.Exec(query,
		score,
		score,
		models.FeatureScoreThreshold,
		string(models.StatusFeatured),
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}

	return rowsOrNotFound(result, shared.ErrPlaylistNotFound)
}

// UpdateExternalID repairs a stored external id, as when a re-sync resolved
// the playlist by title search and learned its current platform id.
func (r *PlaylistRepository) UpdateExternalID(id int64, externalID string) error {
	return r.setColumn(id, "external_id", externalID)
}

// UpdateCover stores the local cover image path.
func (r *PlaylistRepository) UpdateCover(id int64, cover string) error {
	return r.setColumn(id, "cover_image", cover)
}

func (r *PlaylistRepository) setColumn(id int64, column, value string) error {
	query := `UPDATE playlists SET ` + column + ` = ?, updated_at = ? WHERE playlist_id = ?`
	result, err := r.db.Exec(query, nullable(value), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return rowsOrNotFound(result, shared.ErrPlaylistNotFound)
}

// Delete removes a playlist; membership rows cascade.
func (r *PlaylistRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM playlists WHERE playlist_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return rowsOrNotFound(result, shared.ErrPlaylistNotFound)
}

// List retrieves playlists matching the given criteria.
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE 1=1`
	args := []any{}

	if userID, ok := criteria["user_id"].(int64); ok && userID > 0 {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if space, ok := criteria["space"].(models.Space); ok && space != "" {
		query += " AND space_type = ?"
		args = append(args, string(space))
	}

	if status, ok := criteria["status"].(models.Status); ok && status != "" {
		query += " AND status_flag = ?"
		args = append(args, string(status))
	}

	if source, ok := criteria["source"].(models.SourceType); ok && source != "" {
		query += " AND source_type = ?"
		args = append(args, string(source))
	}

	query += " ORDER BY playlist_id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// ListPlatformSourced retrieves every platform-imported playlist, the
// re-sync job's work list.
func (r *PlaylistRepository) ListPlatformSourced() ([]*models.Playlist, error) {
	return r.List(map[string]any{"source": models.SourcePlatform})
}

// ReplaceTracks swaps a playlist's entire membership for the given ordered
// track ids, in a single transaction. Readers never observe the playlist
// mid-replacement: either the old membership or the new one.
func (r *PlaylistRepository) ReplaceTracks(playlistID int64, trackIDs []int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("failed to clear membership: %w", err)
	}

	now := time.Now()
	stmt, err := tx.Prepare(`
		INSERT INTO playlist_tracks (playlist_id, track_id, order_index, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(playlist_id, track_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, trackID := range trackIDs {
		if _, err := stmt.Exec(playlistID, trackID, i, now); err != nil {
			return fmt.Errorf("failed to insert membership row: %w", err)
		}
	}

	if _, err := tx.Exec(`UPDATE playlists SET updated_at = ? WHERE playlist_id = ?`, now, playlistID); err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit membership replacement: %w", err)
	}

	return nil
}

// AddTrack appends a track at the end of a playlist's ordering.
func (r *PlaylistRepository) AddTrack(playlistID, trackID int64) error {
	query := `
		INSERT INTO playlist_tracks (playlist_id, track_id, order_index, added_at)
		SELECT ?, ?, COALESCE(MAX(order_index) + 1, 0), ?
		FROM playlist_tracks WHERE playlist_id = ?
	`

	_, err := r.db.Exec(query, playlistID, trackID, time.Now(), playlistID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: track already in playlist", shared.ErrDuplicate)
		}
		return fmt.Errorf("failed to add track: %w", err)
	}

	return nil
}

// RemoveTrack drops a single membership row.
func (r *PlaylistRepository) RemoveTrack(playlistID, trackID int64) error {
	result, err := r.db.Exec(
		`DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`,
		playlistID, trackID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}
	return rowsOrNotFound(result, shared.ErrTrackNotFound)
}

// Tracks retrieves a playlist's tracks in membership order.
func (r *PlaylistRepository) Tracks(playlistID int64) ([]*models.Track, error) {
	query := `
		SELECT t.track_id, t.title, t.artist, t.album, t.duration, t.isrc,
			t.spotify_id, t.youtube_id, t.tidal_id, t.artwork, t.genre, t.popularity,
			t.release_date, t.audio_features, t.external_metadata, t.created_at, t.updated_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.track_id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.order_index ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// TrackCount reports how many tracks a playlist currently holds.
func (r *PlaylistRepository) TrackCount(playlistID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = ?`, playlistID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	playlist, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

func scanPlaylist(row rowScanner) (*models.Playlist, error) {
	var (
		playlist       models.Playlist
		description    sql.NullString
		space          string
		status         string
		source         string
		sourcePlatform sql.NullString
		externalID     sql.NullString
		cover          sql.NullString
		score          sql.NullInt64
	)

	err := row.Scan(
		&playlist.ID,
		&playlist.UserID,
		&playlist.Title,
		&description,
		&space,
		&status,
		&source,
		&sourcePlatform,
		&externalID,
		&cover,
		&score,
		&playlist.CreatedAt,
		&playlist.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	playlist.Description = fromNull(description)
	playlist.Space = models.Space(space)
	playlist.Status = models.Status(status)
	playlist.Source = models.SourceType(source)
	playlist.SourcePlatform = models.Platform(fromNull(sourcePlatform))
	playlist.ExternalID = fromNull(externalID)
	playlist.CoverImage = fromNull(cover)
	playlist.Score = int(score.Int64)

	return &playlist, nil
}

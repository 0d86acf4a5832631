package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

const trackColumns = `track_id, title, artist, album, duration, isrc,
	spotify_id, youtube_id, tidal_id, artwork, genre, popularity,
	release_date, audio_features, external_metadata, created_at, updated_at`

// TrackRepository persists tracks and serves the reconciler's identifier
// lookups (platform id, ISRC, title+artist).
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new track and fills in its generated id.
func (r *TrackRepository) Create(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.CreatedAt = now
	track.UpdatedAt = now

	query := `
		INSERT INTO tracks (title, artist, album, duration, isrc, spotify_id, youtube_id, tidal_id,
			artwork, genre, popularity, release_date, audio_features, external_metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		track.Title,
		track.Artist,
		nullable(track.Album),
		track.Duration,
		nullable(track.ISRC),
		nullable(track.SpotifyID),
		nullable(track.YouTubeID),
		nullable(track.TidalID),
		nullable(track.Artwork),
		nullable(track.Genre),
		track.Popularity,
		nullable(track.ReleaseDate),
		nullable(track.AudioFeatures),
		nullable(track.Metadata),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	track.ID = id

	return nil
}

// Get retrieves a track by id.
func (r *TrackRepository) Get(id int64) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE track_id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPlatformID retrieves a track by its native id on the given platform.
func (r *TrackRepository) GetByPlatformID(platform models.Platform, platformID string) (*models.Track, error) {
	if platformID == "" {
		return nil, shared.ErrTrackNotFound
	}

	var column string
	switch platform {
	case models.PlatformSpotify:
		column = "spotify_id"
	case models.PlatformYouTube:
		column = "youtube_id"
	case models.PlatformTidal:
		column = "tidal_id"
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownPlatform, platform)
	}

	query := `SELECT ` + trackColumns + ` FROM tracks WHERE ` + column + ` = ? LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, platformID))
}

// GetByISRC retrieves a track by ISRC regardless of which platform stored it.
func (r *TrackRepository) GetByISRC(isrc string) (*models.Track, error) {
	if isrc == "" {
		return nil, shared.ErrTrackNotFound
	}

	query := `SELECT ` + trackColumns + ` FROM tracks WHERE isrc = ? LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, isrc))
}

// GetByTitleArtist retrieves a track by exact title and artist string match.
// This is the lossiest reconciliation tier; remixes and covers can collide.
func (r *TrackRepository) GetByTitleArtist(title, artist string) (*models.Track, error) {
	if title == "" || artist == "" {
		return nil, shared.ErrTrackNotFound
	}

	query := `SELECT ` + trackColumns + ` FROM tracks WHERE title = ? AND artist = ? LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, title, artist))
}

// Update rewrites the mutable columns of an existing track.
func (r *TrackRepository) Update(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.UpdatedAt = now

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration = ?, isrc = ?,
			spotify_id = ?, youtube_id = ?, tidal_id = ?, artwork = ?,
			genre = ?, popularity = ?, release_date = ?, updated_at = ?
		WHERE track_id = ?
	`

	result, err := r.db.Exec(query,
		track.Title,
		track.Artist,
		nullable(track.Album),
		track.Duration,
		nullable(track.ISRC),
		nullable(track.SpotifyID),
		nullable(track.YouTubeID),
		nullable(track.TidalID),
		nullable(track.Artwork),
		nullable(track.Genre),
		track.Popularity,
		nullable(track.ReleaseDate),
		now,
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	return rowsOrNotFound(result, shared.ErrTrackNotFound)
}

// UpdatePlatformID backfills a native platform id onto an existing track,
// as when an ISRC match reveals a track already known from another service.
func (r *TrackRepository) UpdatePlatformID(id int64, platform models.Platform, platformID string) error {
	var column string
	switch platform {
	case models.PlatformSpotify:
		column = "spotify_id"
	case models.PlatformYouTube:
		column = "youtube_id"
	case models.PlatformTidal:
		column = "tidal_id"
	default:
		return fmt.Errorf("%w: %q", shared.ErrUnknownPlatform, platform)
	}

	query := `UPDATE tracks SET ` + column + ` = ?, updated_at = ? WHERE track_id = ?`
	result, err := r.db.Exec(query, nullable(platformID), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update platform id: %w", err)
	}

	return rowsOrNotFound(result, shared.ErrTrackNotFound)
}

// UpdateEnrichment stores the enricher's output without touching core fields.
// Empty arguments leave the corresponding column as is.
func (r *TrackRepository) UpdateEnrichment(id int64, genre, audioFeatures, metadata string, popularity int) error {
	query := `
		UPDATE tracks
		SET genre = COALESCE(?, genre),
			audio_features = COALESCE(?, audio_features),
			external_metadata = COALESCE(?, external_metadata),
			popularity = CASE WHEN ? > 0 THEN ? ELSE popularity END,
			updated_at = ?
		WHERE track_id = ?
	`

	result, err := r.db.Exec(query,
		nullable(genre),
		nullable(audioFeatures),
		nullable(metadata),
		popularity,
		popularity,
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrichment: %w", err)
	}

	return rowsOrNotFound(result, shared.ErrTrackNotFound)
}

// List retrieves tracks matching the given criteria.
func (r *TrackRepository) List(criteria map[string]any) ([]*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE 1=1`
	args := []any{}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre LIKE ?"
		args = append(args, "%"+genre+"%")
	}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if unenriched, ok := criteria["unenriched"].(bool); ok && unenriched {
		query += " AND (genre IS NULL OR genre = '')"
	}

	query += " ORDER BY track_id ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
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

func (r *TrackRepository) scanOne(row *sql.Row) (*models.Track, error) {
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*models.Track, error) {
	var (
		track         models.Track
		album         sql.NullString
		isrc          sql.NullString
		spotifyID     sql.NullString
		youtubeID     sql.NullString
		tidalID       sql.NullString
		artwork       sql.NullString
		genre         sql.NullString
		popularity    sql.NullInt64
		releaseDate   sql.NullString
		audioFeatures sql.NullString
		metadata      sql.NullString
	)

	err := row.Scan(
		&track.ID,
		&track.Title,
		&track.Artist,
		&album,
		&track.Duration,
		&isrc,
		&spotifyID,
		&youtubeID,
		&tidalID,
		&artwork,
		&genre,
		&popularity,
		&releaseDate,
		&audioFeatures,
		&metadata,
		&track.CreatedAt,
		&track.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track.Album = fromNull(album)
	track.ISRC = fromNull(isrc)
	track.SpotifyID = fromNull(spotifyID)
	track.YouTubeID = fromNull(youtubeID)
	track.TidalID = fromNull(tidalID)
	track.Artwork = fromNull(artwork)
	track.Genre = fromNull(genre)
	track.Popularity = int(popularity.Int64)
	track.ReleaseDate = fromNull(releaseDate)
	track.AudioFeatures = fromNull(audioFeatures)
	track.Metadata = fromNull(metadata)

	return &track, nil
}

func rowsOrNotFound(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

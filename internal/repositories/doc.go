// package repositories provides the persistence layer for tracks and
// playlists.
//
// Each repository wraps a *sql.DB and exposes the lookups the importer
// and enricher need: platform-id and ISRC matching for tracks, external-id
// deduplication and transactional membership replacement for playlists.
package repositories

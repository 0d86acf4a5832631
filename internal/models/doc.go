// Package models defines the domain entities for the mixspace aggregation service.
//
// Two categories of types live here:
//
// 1. Persisted entities backed by the relational store:
//   - [Track] : a recording, deduplicated across platforms via native ids and ISRC
//   - [Playlist] : an imported or curated playlist with space/status workflow flags
//   - [PlaylistTrack] : ordered playlist membership, fully rewritten on re-sync
//
// 2. Enumerations and helpers shared by the import pipeline:
//   - [Platform], [Space], [Status], [SourceType]
//   - normalization helpers ([JoinArtists], [PadReleaseDate]) applied before
//     track reconciliation
package models

// package formatter provides functions to export playlist data to various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

// ExportToCSV converts a playlist and its tracks to CSV with columns:
// ID, Title, Artist, Album, Duration, ISRC, Genre
func ExportToCSV(tracks []*models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "ISRC", "Genre"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			strconv.FormatInt(track.ID, 10),
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.Duration),
			track.ISRC,
			track.Genre,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// exportEnvelope is the JSON export shape.
type exportEnvelope struct {
	Playlist exportPlaylist `json:"playlist"`
	Tracks   []exportTrack  `json:"tracks"`
}

type exportPlaylist struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Space       string `json:"space"`
	Status      string `json:"status"`
	Source      string `json:"source"`
	Platform    string `json:"platform,omitempty"`
	ExternalID  string `json:"externalId,omitempty"`
	Score       int    `json:"score,omitempty"`
	TrackCount  int    `json:"trackCount"`
}

type exportTrack struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	Duration    int    `json:"duration"`
	ISRC        string `json:"isrc,omitempty"`
	Genre       string `json:"genre,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// ExportToJSON converts a playlist and its tracks to an indented JSON document.
func ExportToJSON(playlist *models.Playlist, tracks []*models.Track) ([]byte, error) {
	envelope := exportEnvelope{
		Playlist: exportPlaylist{
			ID:          playlist.ID,
			Title:       playlist.Title,
			Description: playlist.Description,
			Space:       string(playlist.Space),
			Status:      string(playlist.Status),
			Source:      string(playlist.Source),
			Platform:    string(playlist.SourcePlatform),
			ExternalID:  playlist.ExternalID,
			Score:       playlist.Score,
			TrackCount:  len(tracks),
		},
		Tracks: make([]exportTrack, 0, len(tracks)),
	}

	for _, track := range tracks {
		envelope.Tracks = append(envelope.Tracks, exportTrack{
			ID:          track.ID,
			Title:       track.Title,
			Artist:      track.Artist,
			Album:       track.Album,
			Duration:    track.Duration,
			ISRC:        track.ISRC,
			Genre:       track.Genre,
			ReleaseDate: track.ReleaseDate,
		})
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON: %w", err)
	}
	return data, nil
}

// ExportToMarkdown converts a playlist to Markdown with an optional cover image reference.
func ExportToMarkdown(playlist *models.Playlist, tracks []*models.Track, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.Title))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(tracks)))
	buf.WriteString(fmt.Sprintf("**Space**: %s\n", playlist.Space))
	buf.WriteString(fmt.Sprintf("**Status**: %s\n\n", playlist.Status))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		duration := shared.FormatDuration(track.Duration)
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Title, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(playlist *models.Playlist, tracks []*models.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Title))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
	}

	return buf.Bytes(), nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with an accompanying metadata JSON file.
//
// Defaults to the playlist id as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(playlist *models.Playlist, tracks []*models.Track, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = strconv.FormatInt(playlist.ID, 10)
	}

	csvData, err := ExportToCSV(tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ExportToJSON(playlist, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist id}_tracks.txt as the filename.
func WriteTextExport(playlist *models.Playlist, tracks []*models.Track, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%d_tracks.txt", playlist.ID)
	}

	textData, err := ExportToText(playlist, tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

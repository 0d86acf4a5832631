package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/shared"
)

// CoverStore is the subset of the playlist repository the downloader needs.
type CoverStore interface {
	UpdateCover(id int64, cover string) error
}

// CoverDownloader fetches playlist cover art to local storage and rewrites
// the stored cover path. Downloads are fire-and-forget; failures leave the
// remote URL in place.
type CoverDownloader struct {
	dir        string
	playlists  CoverStore
	httpClient *http.Client
	logger     *log.Logger
}

// NewCoverDownloader creates a CoverDownloader writing into dir.
func NewCoverDownloader(dir string, playlists CoverStore, logger *log.Logger) *CoverDownloader {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CoverDownloader{
		dir:        dir,
		playlists:  playlists,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// DownloadAsync fetches a cover in the background.
func (c *CoverDownloader) DownloadAsync(playlistID int64, url string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := c.Download(ctx, playlistID, url); err != nil {
			c.logger.Warn("cover download failed", "playlist", playlistID, "err", err)
		}
	}()
}

// Download fetches the image at url into the covers directory and stores the
// local path on the playlist.
func (c *CoverDownloader) Download(ctx context.Context, playlistID int64, url string) error {
	if url == "" {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create covers dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: cover fetch status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	name := fmt.Sprintf("playlist_%d%s", playlistID, extensionFor(resp.Header.Get("Content-Type")))
	path := filepath.Join(c.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cover file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write cover: %w", err)
	}

	if err := c.playlists.UpdateCover(playlistID, path); err != nil {
		return fmt.Errorf("failed to store cover path: %w", err)
	}

	c.logger.Debug("downloaded cover", "playlist", playlistID, "path", path)
	return nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

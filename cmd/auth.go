package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixspace/internal/auth"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/server"
	"github.com/desertthunder/mixspace/internal/shared"
)

// parsePlatform maps a command-line platform name to its enum value.
func parsePlatform(raw string) (models.Platform, error) {
	switch platform := models.Platform(strings.ToLower(raw)); platform {
	case models.PlatformSpotify, models.PlatformTidal, models.PlatformYouTube:
		return platform, nil
	}
	return models.PlatformUnknown, fmt.Errorf("%w: %q", shared.ErrUnknownPlatform, raw)
}

// AuthLogin performs the OAuth2 authorization-code flow for a platform.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// stores the resulting session on disk for later invocations.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	platform, err := parsePlatform(cmd.StringArg("platform"))
	if err != nil {
		return err
	}

	if platform == models.PlatformYouTube {
		r.writePlain("YouTube access uses the configured API key; no login needed.\n")
		return nil
	}

	manager, ok := r.buildManagers()[platform]
	if !ok {
		return fmt.Errorf("%w: %q has no interactive login", shared.ErrUnknownPlatform, platform)
	}
	if !manager.Configured() {
		return fmt.Errorf("%w: set the %s client id and secret in config.toml", shared.ErrMissingCredentials, platform)
	}

	session, err := r.doOAuth(ctx, manager, r.redirectURI(platform), string(platform))
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Session saved to %s\n", r.sessionPath(platform))
	if !session.ExpiresAt.IsZero() {
		r.writePlain("Token expires at %s\n", session.ExpiresAt.Format(time.RFC1123))
	}
	return nil
}

// AuthStatus reports configuration and login state for each platform.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	managers := r.buildManagers()
	for _, platform := range []models.Platform{models.PlatformSpotify, models.PlatformTidal} {
		manager := managers[platform]

		state := "✗ not authenticated"
		if session, ok := manager.Store().Get(defaultVisitorKey); ok {
			if time.Now().Before(session.ExpiresAt) {
				state = "✓ authenticated"
			} else if session.RefreshToken != "" {
				state = "✓ authenticated (token pending refresh)"
			}
		}
		if !manager.Configured() {
			state = "✗ not configured"
		}

		r.writePlain("%-8s %s\n", platform, state)
	}

	if r.config.Credentials.YouTube.APIKey != "" {
		r.writePlain("%-8s ✓ API key configured\n", models.PlatformYouTube)
	} else {
		r.writePlain("%-8s ✗ no API key\n", models.PlatformYouTube)
	}
	return nil
}

// AuthLogout discards a platform's stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	platform, err := parsePlatform(cmd.StringArg("platform"))
	if err != nil {
		return err
	}

	manager, ok := r.buildManagers()[platform]
	if !ok {
		return fmt.Errorf("%w: %q has no stored session", shared.ErrUnknownPlatform, platform)
	}
	manager.Logout(defaultVisitorKey)

	return r.writePlain("✓ Logged out of %s\n", platform)
}

// redirectURI returns the configured OAuth redirect for a platform.
func (r *Runner) redirectURI(platform models.Platform) string {
	switch platform {
	case models.PlatformSpotify:
		return r.config.Credentials.Spotify.RedirectURI
	case models.PlatformTidal:
		return r.config.Credentials.Tidal.RedirectURI
	}
	return ""
}

// doOAuth runs one browser authorization round trip against a local callback
// server and returns the stored session.
func (r *Runner) doOAuth(ctx context.Context, manager *auth.Manager, redirectURI, name string) (auth.Session, error) {
	authURL, _, err := manager.LoginURL(defaultVisitorKey)
	if err != nil {
		return auth.Session{}, err
	}

	oauthHandler := server.NewOAuthHandler(manager, redirectURI)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := r.config.Server.Addr()
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server for %s at %v", name, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for %s authorization...\n", name)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return auth.Session{}, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return auth.Session{}, fmt.Errorf("authorization timed out after 2 minutes")
	case <-ctx.Done():
		return auth.Session{}, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return auth.Session{}, fmt.Errorf("authorization failed: %w", result.Error())
	}

	return result.Session, nil
}

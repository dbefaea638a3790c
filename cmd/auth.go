package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/tuneline/internal/server"
	"github.com/desertthunder/tuneline/internal/services"
	"github.com/desertthunder/tuneline/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 PKCE authorization flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Credentials.Spotify.ClientID == "" {
		return fmt.Errorf("%w: Spotify client_id must be set in config.toml or SPOTIFY_CLIENT_ID", shared.ErrMissingCredentials)
	}

	spotifyService, err := services.NewSpotifyService(
		config.Credentials.Spotify.ClientID,
		config.Credentials.Spotify.RedirectURI,
	)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(config, spotifyService)
	if err != nil {
		return err
	}

	if err := spotifyService.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.config = config
	r.spotify = spotifyService
	r.catalog = spotifyService
	r.builder = r.newBuilder(nil)

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now use: tuneline game tui\n")

	return nil
}

// AuthStatus checks the stored session by fetching the user's profile.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("checking auth status")

	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		r.writePlain("✗ Not authenticated: %v\n", err)
		r.writePlain("Run 'tuneline auth login' to authenticate.\n")
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("User: %s\n", user.DisplayName)
	r.writePlain("ID: %s\n", user.ID)
	return nil
}

// AuthLogout discards stored tokens from the configuration file.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	r.config.Credentials.Spotify.AccessToken = ""
	r.config.Credentials.Spotify.RefreshToken = ""

	if _, err := os.Stat(configPath); err == nil {
		if err := shared.SaveConfig(configPath, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server.
// The exchange options carry the PKCE verifier from the service instance.
func (r *Runner) doOAuth(config *shared.Config, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state, oauthSrv.ExchangeOptions()...)

	mux := http.NewServeMux()
	mux.Handle("/callback", oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
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
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tunemerge/tunemerge/internal/repositories"
	"github.com/tunemerge/tunemerge/internal/server"
	"github.com/tunemerge/tunemerge/internal/shared"
	"github.com/urfave/cli/v3"
)

// defaultCallbackWait bounds how long auth login blocks on the browser.
const defaultCallbackWait = 5 * time.Minute

// AuthLogin runs the OAuth authorization code flow for one provider.
//
// Starts a one-shot callback server, prints the authorization URL, and waits
// for the provider to redirect back with a code. The exchanged credential is
// persisted through the credential manager.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.String("provider")
	wait := cmd.Duration("timeout")
	if wait <= 0 {
		wait = defaultCallbackWait
	}

	exchanger, err := r.exchanger(provider)
	if err != nil {
		return err
	}
	manager, err := r.authManager()
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(manager, r.userID, provider, state)

	router := server.NewBasicRouter()
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	r.writePlain("Open the following URL in your browser to authorize %s:\n\n", provider)
	r.writePlain("%s\n\n", exchanger.AuthURL(state))
	r.logger.Info("waiting for OAuth callback", "addr", addr, "provider", provider)

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		r.logger.Info("authorization complete", "provider", provider)
		return r.writePlain("✓ Authenticated with %s (token expires %s)\n",
			provider, result.Credential.ExpiresAt.Format(time.RFC3339))
	case <-time.After(wait):
		return fmt.Errorf("%w: no OAuth callback received within %s", shared.ErrTimeout, wait)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthStatus lists stored credentials and whether each is still valid.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	repo := repositories.NewCredentialRepository(db)

	providers, err := repo.ListProviders(r.userID)
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}

	if len(providers) == 0 {
		return r.writePlain("No stored credentials. Run 'tunemerge auth login --provider spotify' to authorize.\n")
	}

	for _, provider := range providers {
		cred, err := repo.Load(r.userID, provider)
		if err != nil || cred == nil {
			r.writePlain("✗ %s: unreadable credential\n", provider)
			continue
		}

		if time.Now().Before(cred.ExpiresAt) {
			r.writePlain("✓ %s: valid until %s\n", provider, cred.ExpiresAt.Format(time.RFC3339))
		} else if cred.RefreshToken != "" {
			r.writePlain("~ %s: expired, will refresh on next use\n", provider)
		} else {
			r.writePlain("✗ %s: expired with no refresh token, re-run auth login\n", provider)
		}
	}

	return nil
}

// AuthLogout removes a provider's stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.String("provider")

	db, err := r.database()
	if err != nil {
		return err
	}
	repo := repositories.NewCredentialRepository(db)

	if err := repo.Delete(r.userID, provider); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}

	r.logger.Info("credential removed", "provider", provider)
	return r.writePlain("✓ Logged out of %s\n", provider)
}

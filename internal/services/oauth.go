package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/tunemerge/tunemerge/internal/auth"
	"github.com/tunemerge/tunemerge/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	googleAuthURL   = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL  = "https://oauth2.googleapis.com/token"
)

var spotifyScopes = []string{
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
}

var youtubeScopes = []string{
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.readonly",
}

// ProviderExchanger implements [auth.TokenExchanger] on top of an
// oauth2.Config for a single provider.
type ProviderExchanger struct {
	provider string
	config   *oauth2.Config
}

// NewSpotifyExchanger creates the OAuth client for Spotify's accounts service.
func NewSpotifyExchanger(creds shared.ProviderConfig) *ProviderExchanger {
	return &ProviderExchanger{
		provider: "spotify",
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       spotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
	}
}

// NewYouTubeExchanger creates the OAuth client for Google's accounts service.
func NewYouTubeExchanger(creds shared.ProviderConfig) *ProviderExchanger {
	return &ProviderExchanger{
		provider: "youtube",
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       youtubeScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: googleTokenURL,
			},
		},
	}
}

func (e *ProviderExchanger) Provider() string {
	return e.provider
}

// SetTokenURL overrides the token endpoint, for tests.
func (e *ProviderExchanger) SetTokenURL(tokenURL string) {
	e.config.Endpoint.TokenURL = tokenURL
}

// AuthURL returns the provider's authorization URL for user login.
func (e *ProviderExchanger) AuthURL(state string) string {
	return e.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the underlying oauth2.Config for the callback server.
func (e *ProviderExchanger) OAuthConfig() *oauth2.Config {
	return e.config
}

// ExchangeAuthCode trades an authorization code for an access token.
func (e *ProviderExchanger) ExchangeAuthCode(ctx context.Context, code string) (*auth.TokenExchange, error) {
	token, err := e.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}

	return exchangeFromToken(token), nil
}

// ExchangeRefreshToken trades a refresh token for a fresh access token.
// The provider may or may not rotate the refresh token.
func (e *ProviderExchanger) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*auth.TokenExchange, error) {
	source := e.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	exchange := exchangeFromToken(token)
	if exchange.RefreshToken == refreshToken {
		// Same token back is not a rotation
		exchange.RefreshToken = ""
	}

	return exchange, nil
}

func exchangeFromToken(token *oauth2.Token) *auth.TokenExchange {
	exchange := &auth.TokenExchange{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if !token.Expiry.IsZero() {
		exchange.ExpiresIn = int(time.Until(token.Expiry).Seconds())
	}

	return exchange
}

// Package auth owns the per-user, per-provider credential lifecycle:
// expiry detection, refresh-on-demand, and persistence hand-off.
//
// Credentials are keyed records passed explicitly through the [Manager];
// there is no process-wide token state. Refresh for a single
// (user, provider) pair is serialized so two concurrent refreshes cannot
// invalidate each other's refresh token.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/shared"
)

// CredentialStore abstracts "get/put credential record for (user, provider)".
//
// Load returns nil with no error when no record exists.
type CredentialStore interface {
	Load(userID, provider string) (*models.Credential, error)
	Save(cred *models.Credential) error
}

// TokenExchange is the result of an OAuth token endpoint call.
type TokenExchange struct {
	AccessToken  string
	RefreshToken string // Empty when the provider did not rotate it
	ExpiresIn    int    // Lifetime in seconds
}

// TokenExchanger abstracts the raw OAuth client for one provider.
type TokenExchanger interface {
	ExchangeAuthCode(ctx context.Context, code string) (*TokenExchange, error)
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (*TokenExchange, error)
}

// Manager owns expiry checking and refresh-on-demand for provider credentials.
type Manager struct {
	store      CredentialStore
	exchangers map[string]TokenExchanger
	grace      time.Duration
	now        func() time.Time
	logger     *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ManagerOpts configures a Manager.
type ManagerOpts struct {
	Store      CredentialStore
	Exchangers map[string]TokenExchanger
	Grace      time.Duration    // Expiry grace period, zero keeps the strict comparison
	Now        func() time.Time // Clock override for tests
	Logger     *log.Logger
}

// NewManager creates a Manager with the provided store and per-provider exchangers.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Exchangers == nil {
		opts.Exchangers = map[string]TokenExchanger{}
	}

	return &Manager{
		store:      opts.Store,
		exchangers: opts.Exchangers,
		grace:      opts.Grace,
		now:        opts.Now,
		logger:     opts.Logger,
		locks:      map[string]*sync.Mutex{},
	}
}

// keyLock returns the mutex serializing refreshes for one (user, provider) pair.
func (m *Manager) keyLock(userID, provider string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userID + "|" + provider
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// expired reports whether the credential's expiry is at or before now.
// No clock-skew allowance is applied unless a grace period is configured.
func (m *Manager) expired(cred *models.Credential) bool {
	deadline := cred.ExpiresAt.Add(-m.grace)
	now := m.now()
	return deadline.Before(now) || deadline.Equal(now)
}

// ValidCredential returns a credential for (userID, provider) guaranteed not
// expired at call time, refreshing it first when needed.
//
// Returns [shared.ErrNotAuthenticated] when no credential is stored; the
// caller is expected to send the end user through the authorization flow.
func (m *Manager) ValidCredential(ctx context.Context, userID, provider string) (*models.Credential, error) {
	lock := m.keyLock(userID, provider)
	lock.Lock()
	defer lock.Unlock()

	cred, err := m.store.Load(userID, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: no credential for user %s on %s", shared.ErrNotAuthenticated, userID, provider)
	}

	if !m.expired(cred) {
		return cred, nil
	}

	m.logger.Info("credential expired, refreshing", "user", userID, "provider", provider)
	return m.refresh(ctx, cred)
}

// Refresh exchanges the credential's refresh token for a new access token
// and persists the updated record.
//
// Returns [shared.ErrRefreshFailed] when the provider rejects the refresh
// token. Not retried automatically; the caller must re-run authorization.
func (m *Manager) Refresh(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	lock := m.keyLock(cred.UserID, cred.Provider)
	lock.Lock()
	defer lock.Unlock()

	return m.refresh(ctx, cred)
}

// refresh performs the exchange. Callers must hold the key lock.
func (m *Manager) refresh(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	exchanger, ok := m.exchangers[cred.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownProvider, cred.Provider)
	}

	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w: user %s on %s", shared.ErrNoRefreshToken, cred.UserID, cred.Provider)
	}

	exchange, err := exchanger.ExchangeRefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	cred.AccessToken = exchange.AccessToken
	cred.ExpiresAt = m.now().Add(time.Duration(exchange.ExpiresIn) * time.Second)
	if exchange.RefreshToken != "" {
		// Providers may omit rotation; keep the old refresh token then.
		cred.RefreshToken = exchange.RefreshToken
	}

	if err := m.store.Save(cred); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	return cred, nil
}

// Authorize exchanges an authorization code for tokens and persists the
// resulting credential for (userID, provider).
func (m *Manager) Authorize(ctx context.Context, userID, provider, code string) (*models.Credential, error) {
	exchanger, ok := m.exchangers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownProvider, provider)
	}

	exchange, err := exchanger.ExchangeAuthCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	cred := &models.Credential{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  exchange.AccessToken,
		RefreshToken: exchange.RefreshToken,
		ExpiresAt:    m.now().Add(time.Duration(exchange.ExpiresIn) * time.Second),
	}

	if err := m.store.Save(cred); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}

	return cred, nil
}

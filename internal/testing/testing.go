// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/tunemerge/tunemerge/internal/auth"
	"github.com/tunemerge/tunemerge/internal/models"
)

// MockService is a test double for [services.Service]
type MockService struct {
	Provider  string
	Playlists []models.Playlist
	Entries   map[string][]models.PlaylistEntry
	Results   map[string][]models.CandidateMatch
}

func (m *MockService) SearchTracks(ctx context.Context, query string, cred *models.Credential) ([]models.CandidateMatch, error) {
	return m.Results[query], nil
}

func (m *MockService) ListPlaylistTracks(ctx context.Context, playlistID string, cred *models.Credential) ([]models.PlaylistEntry, error) {
	return m.Entries[playlistID], nil
}

func (m *MockService) ListPlaylists(ctx context.Context, cred *models.Credential) ([]models.Playlist, error) {
	return m.Playlists, nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string, cred *models.Credential) (*models.Playlist, error) {
	for i := range m.Playlists {
		if m.Playlists[i].ID == playlistID {
			return &m.Playlists[i], nil
		}
	}
	return &models.Playlist{ID: playlistID, Name: "Mock Playlist"}, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string, private bool, cred *models.Credential) (string, error) {
	return "mock-playlist-id", nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string, cred *models.Credential) error {
	return nil
}

func (m *MockService) Name() string {
	if m.Provider == "" {
		return "mock"
	}
	return m.Provider
}

// MemoryStore is an in-memory [auth.CredentialStore]
type MemoryStore struct {
	creds map[string]*models.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]*models.Credential)}
}

func (s *MemoryStore) Load(userID, provider string) (*models.Credential, error) {
	cred, ok := s.creds[userID+"/"+provider]
	if !ok {
		return nil, nil
	}
	copied := *cred
	return &copied, nil
}

func (s *MemoryStore) Save(cred *models.Credential) error {
	copied := *cred
	s.creds[cred.UserID+"/"+cred.Provider] = &copied
	return nil
}

// MockExchanger is a test double for [auth.TokenExchanger]
type MockExchanger struct {
	Exchange *auth.TokenExchange
	Err      error
	Calls    int
}

func (m *MockExchanger) ExchangeAuthCode(ctx context.Context, code string) (*auth.TokenExchange, error) {
	m.Calls++
	return m.Exchange, m.Err
}

func (m *MockExchanger) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*auth.TokenExchange, error) {
	m.Calls++
	return m.Exchange, m.Err
}

// ValidCredential builds a credential that will not need a refresh during the test.
func ValidCredential(userID, provider string) *models.Credential {
	return &models.Credential{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  provider + "-token",
		RefreshToken: provider + "-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

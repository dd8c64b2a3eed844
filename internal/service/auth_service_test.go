package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"trend-finder-be/internal/config"
	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/repository/kv"
	"trend-finder-be/internal/repository/memory"
	"trend-finder-be/pkg/apperr"
	"trend-finder-be/pkg/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestWorkspaces() IWorkspaceService {
	log := logger.NewNopLogger()
	return NewWorkspaceService(
		memory.NewWorkspaceRepository(time.Hour),
		kv.NewMemoryStore(),
		workspace.Dependencies{Logger: log},
		log,
	)
}

func TestMockProviders(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)

	tests := []struct {
		name       string
		req        dto.LoginRequest
		wantID     string
		wantName   string
		wantAvatar string
	}{
		{
			name:       "google",
			req:        dto.LoginRequest{Provider: dto.ProviderGoogle},
			wantID:     "g_123",
			wantName:   "Google User",
			wantAvatar: "https://ui-avatars.com/api/?name=Google+User&background=random",
		},
		{
			name:     "facebook",
			req:      dto.LoginRequest{Provider: dto.ProviderFacebook},
			wantID:   "f_456",
			wantName: "Facebook User",
		},
		{
			name:       "email with name",
			req:        dto.LoginRequest{Provider: dto.ProviderEmail, Email: "dana@example.com", Name: "Dana"},
			wantID:     "e_1700000000000",
			wantName:   "Dana",
			wantAvatar: "https://ui-avatars.com/api/?name=Dana&background=random",
		},
		{
			name:       "email without name",
			req:        dto.LoginRequest{Provider: dto.ProviderEmail, Email: "dana@example.com"},
			wantID:     "e_1700000000000",
			wantName:   "dana",
			wantAvatar: "https://ui-avatars.com/api/?name=dana%40example.com&background=random",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(newTestWorkspaces(), config.AuthConfig{}, logger.NewNopLogger()).(*authService)
			svc.now = func() time.Time { return fixed }

			res, err := svc.Login(context.Background(), "client-1", &tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.User.Id)
			assert.Equal(t, tt.wantName, res.User.Name)
			if tt.wantAvatar != "" {
				assert.Equal(t, tt.wantAvatar, res.User.Avatar)
			}

			me := svc.Me(context.Background(), "client-1")
			require.NotNil(t, me.User)
			assert.Equal(t, tt.wantID, me.User.Id)

			assert.Nil(t, svc.Logout(context.Background(), "client-1").User)
			assert.Nil(t, svc.Me(context.Background(), "client-1").User)
		})
	}
}

func TestEmailLoginRequiresEmail(t *testing.T) {
	svc := NewAuthService(newTestWorkspaces(), config.AuthConfig{}, logger.NewNopLogger())

	_, err := svc.Login(context.Background(), "client-1", &dto.LoginRequest{Provider: dto.ProviderEmail})
	assert.True(t, apperr.IsKind(err, apperr.KindInputValidation))
}

func TestGoogleFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"42","email":"ann@example.com","name":"Ann"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	workspaces := newTestWorkspaces()
	svc := NewAuthService(workspaces, config.AuthConfig{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		GoogleRedirectURL:  "http://localhost/callback",
	}, logger.NewNopLogger()).(*authService)
	svc.googleConf.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	svc.userInfoURL = srv.URL + "/userinfo"

	assert.True(t, svc.GoogleEnabled())

	_, _, err := svc.HandleGoogleCallback(context.Background(), "forged", "code")
	assert.True(t, apperr.IsKind(err, apperr.KindInputValidation))

	loginURL, err := svc.GoogleLoginURL("client-7")
	require.NoError(t, err)
	parsed, err := url.Parse(loginURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	clientID, res, err := svc.HandleGoogleCallback(context.Background(), state, "code")
	require.NoError(t, err)
	assert.Equal(t, "client-7", clientID)
	assert.Equal(t, "g_42", res.User.Id)
	assert.Equal(t, "Ann", res.User.Name)
	assert.Contains(t, res.User.Avatar, "ui-avatars.com")

	assert.Equal(t, "g_42", workspaces.Get(context.Background(), "client-7").Identity().Id)

	// states are single use
	_, _, err = svc.HandleGoogleCallback(context.Background(), state, "code")
	assert.Error(t, err)
}

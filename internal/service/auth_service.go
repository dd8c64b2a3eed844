package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"trend-finder-be/internal/config"
	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/entity"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/apperr"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateTTL     = 10 * time.Minute
)

type IAuthService interface {
	// Login signs the device in with one of the built-in providers.
	Login(ctx context.Context, clientID string, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, clientID string) *dto.AuthResponse
	Me(ctx context.Context, clientID string) *dto.AuthResponse

	GoogleEnabled() bool
	GoogleLoginURL(clientID string) (string, error)
	// HandleGoogleCallback completes the OAuth flow started by GoogleLoginURL
	// and signs in the device that started it.
	HandleGoogleCallback(ctx context.Context, state, code string) (string, *dto.AuthResponse, error)
}

type authService struct {
	workspaces  IWorkspaceService
	googleConf  *oauth2.Config
	userInfoURL string
	states      *cache.Cache
	now         func() time.Time
	logger      logger.ILogger
}

func NewAuthService(workspaces IWorkspaceService, cfg config.AuthConfig, log logger.ILogger) IAuthService {
	var conf *oauth2.Config
	if cfg.GoogleClientID != "" {
		conf = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}

	return &authService{
		workspaces:  workspaces,
		googleConf:  conf,
		userInfoURL: googleUserInfoURL,
		states:      cache.New(oauthStateTTL, oauthStateTTL),
		now:         time.Now,
		logger:      log,
	}
}

func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}

// mockUser returns the fixed identities of the built-in providers.
func (s *authService) mockUser(req *dto.LoginRequest) (*entity.User, error) {
	switch req.Provider {
	case dto.ProviderGoogle:
		return &entity.User{Id: "g_123", Name: "Google User", Email: "user@gmail.com", Avatar: avatarURL("Google User")}, nil
	case dto.ProviderFacebook:
		return &entity.User{Id: "f_456", Name: "Facebook User", Email: "user@facebook.com", Avatar: avatarURL("Facebook User")}, nil
	case dto.ProviderEmail:
		email := strings.TrimSpace(req.Email)
		if email == "" {
			return nil, apperr.New(apperr.KindInputValidation, "auth.login", "email is required")
		}
		name := strings.TrimSpace(req.Name)
		display := name
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
			display = email
		}
		return &entity.User{
			Id:     fmt.Sprintf("e_%d", s.now().UnixMilli()),
			Name:   name,
			Email:  email,
			Avatar: avatarURL(display),
		}, nil
	}
	return nil, apperr.New(apperr.KindInputValidation, "auth.login", "unsupported provider")
}

func (s *authService) Login(ctx context.Context, clientID string, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.mockUser(req)
	if err != nil {
		return nil, err
	}

	s.workspaces.Get(ctx, clientID).Login(ctx, user)
	s.logger.Info("AUTH", "Client signed in", map[string]interface{}{
		"client_id": clientID,
		"provider":  req.Provider,
		"user_id":   user.Id,
	})
	return &dto.AuthResponse{User: user}, nil
}

func (s *authService) Logout(ctx context.Context, clientID string) *dto.AuthResponse {
	s.workspaces.Get(ctx, clientID).Logout(ctx)
	return &dto.AuthResponse{}
}

func (s *authService) Me(ctx context.Context, clientID string) *dto.AuthResponse {
	return &dto.AuthResponse{User: s.workspaces.Get(ctx, clientID).Identity()}
}

func (s *authService) GoogleEnabled() bool {
	return s.googleConf != nil
}

func (s *authService) GoogleLoginURL(clientID string) (string, error) {
	if s.googleConf == nil {
		return "", apperr.New(apperr.KindInputValidation, "auth.google", "google sign-in is not configured")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	s.states.Set(state, clientID, cache.DefaultExpiration)

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *authService) HandleGoogleCallback(ctx context.Context, state, code string) (string, *dto.AuthResponse, error) {
	const op = "auth.googleCallback"

	if s.googleConf == nil {
		return "", nil, apperr.New(apperr.KindInputValidation, op, "google sign-in is not configured")
	}
	x, found := s.states.Get(state)
	if !found {
		return "", nil, apperr.New(apperr.KindInputValidation, op, "unknown or expired state")
	}
	s.states.Delete(state)
	clientID := x.(string)

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindRemoteService, op, fmt.Errorf("code exchange failed: %w", err))
	}

	resp, err := s.googleConf.Client(ctx, token).Get(s.userInfoURL)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindRemoteService, op, fmt.Errorf("failed getting user info: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", nil, apperr.Wrap(apperr.KindRemoteService, op, fmt.Errorf("user info status %d", resp.StatusCode))
	}

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return "", nil, apperr.Wrap(apperr.KindInvalidResponseFormat, op, err)
	}
	if googleUser.ID == "" {
		return "", nil, apperr.Wrap(apperr.KindInvalidResponseFormat, op, errors.New("user info without id"))
	}

	user := &entity.User{
		Id:     "g_" + googleUser.ID,
		Name:   googleUser.Name,
		Email:  googleUser.Email,
		Avatar: googleUser.Picture,
	}
	if user.Name == "" {
		user.Name = strings.SplitN(user.Email, "@", 2)[0]
	}
	if user.Avatar == "" {
		user.Avatar = avatarURL(user.Name)
	}

	s.workspaces.Get(ctx, clientID).Login(ctx, user)
	s.logger.Info("AUTH", "Client signed in with Google", map[string]interface{}{
		"client_id": clientID,
		"user_id":   user.Id,
	})
	return clientID, &dto.AuthResponse{User: user}, nil
}

// Package auth exchanges Google OAuth access tokens for application
// session tokens, creating the user record on first sign-in.
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/pricewatch/tracker-api/internal/model"
	"github.com/pricewatch/tracker-api/internal/repository"
	pkgauth "github.com/pricewatch/tracker-api/pkg/auth"
	apperrors "github.com/pricewatch/tracker-api/pkg/errors"
	"github.com/pricewatch/tracker-api/pkg/logger"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// googleUserInfo is the subset of the userinfo response we consume.
type googleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type Service struct {
	users       repository.UserRepository
	jwt         pkgauth.JWTService
	client      *http.Client
	cache       *cache.Cache
	logger      *logger.Logger
	tokenExpiry time.Duration
	userInfoURL string
}

func NewService(users repository.UserRepository, jwt pkgauth.JWTService,
	log *logger.Logger, tokenExpiry time.Duration) *Service {
	if tokenExpiry <= 0 {
		tokenExpiry = 24 * time.Hour
	}
	return &Service{
		users:       users,
		jwt:         jwt,
		client:      &http.Client{Timeout: 10 * time.Second},
		cache:       cache.New(5*time.Minute, 10*time.Minute),
		logger:      log,
		tokenExpiry: tokenExpiry,
		userInfoURL: googleUserInfoURL,
	}
}

// ExchangeGoogleToken verifies a Google access token against the userinfo
// endpoint and returns a session token, creating the user on first sign-in.
func (s *Service) ExchangeGoogleToken(ctx context.Context, accessToken string) (*model.TokenResponse, error) {
	if accessToken == "" {
		return nil, apperrors.BadRequest("access token is required", nil)
	}

	info, err := s.lookupUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, apperrors.Unauthorized(errors.New("userinfo response has no email"))
	}

	user, err := s.findOrCreateUser(ctx, info)
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("session issued", "user", user.Email)
	return &model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.tokenExpiry.Seconds()),
		User:        user,
	}, nil
}

func (s *Service) lookupUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	// Google tokens are opaque; cache the resolved identity so repeated
	// exchanges within a session do not re-hit the userinfo endpoint.
	if cached, ok := s.cache.Get(accessToken); ok {
		info := cached.(googleUserInfo)
		return &info, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to reach userinfo endpoint: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperrors.Unauthorized(fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to decode userinfo response: %w", err))
	}

	s.cache.Set(accessToken, info, cache.DefaultExpiration)
	return &info, nil
}

func (s *Service) findOrCreateUser(ctx context.Context, info *googleUserInfo) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, info.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Internal(err)
	}

	user = &model.User{
		Email:    info.Email,
		GoogleID: info.Sub,
		Name:     info.Name,
		Picture:  info.Picture,
	}
	user.ID = uuid.New()
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("user created", "user", user.Email)
	return user, nil
}

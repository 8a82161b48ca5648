// Package auth issues and verifies the bearer tokens used by the API.
package auth

import (
	"context"
	"time"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/config"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Accounts is the account lookup used for login and refresh.
type Accounts interface {
	Authenticate(ctx context.Context, email, password string) (account.Account, error)
	Get(ctx context.Context, id string) (account.Account, error)
}

// Claims are the verified contents of an access token.
type Claims struct {
	AccountID string
	Role      account.Role
	ExpiresAt time.Time
}

type Service struct {
	cfg      config.Config
	accounts Accounts
	now      func() time.Time
}

func NewService(cfg config.Config, accounts Accounts) *Service {
	return &Service{cfg: cfg, accounts: accounts, now: time.Now}
}

type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Issue signs an access and a refresh token for acc.
func (s *Service) Issue(acc account.Account) (TokenPair, error) {
	access, err := s.sign(acc, tokenAccess, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(acc, tokenRefresh, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}

// Login checks credentials and issues tokens.
func (s *Service) Login(ctx context.Context, email, password string) (account.Account, TokenPair, error) {
	acc, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return account.Account{}, TokenPair{}, err
	}
	pair, err := s.Issue(acc)
	if err != nil {
		return account.Account{}, TokenPair{}, err
	}
	return acc, pair, nil
}

func (s *Service) sign(acc account.Account, typ, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := map[string]any{
		"sub":  acc.ID,
		"role": string(acc.Role),
		"typ":  typ,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return SignHS256(claims, []byte(secret))
}

// Verify checks an access token.
func (s *Service) Verify(token string) (Claims, error) {
	return s.verify(token, tokenAccess, s.cfg.JWTSecret)
}

func (s *Service) verify(token, typ, secret string) (Claims, error) {
	claims, err := ParseAndVerifyHS256(token, []byte(secret), s.now())
	if err != nil {
		return Claims{}, err
	}
	sub, _ := claims["sub"].(string)
	got, _ := claims["typ"].(string)
	if sub == "" || got != typ {
		return Claims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	exp, _ := claims["exp"].(float64)
	return Claims{AccountID: sub, Role: account.Role(role), ExpiresAt: time.Unix(int64(exp), 0).UTC()}, nil
}

// Refresh verifies the refresh token and returns a new access token carrying
// the account's current role.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := s.verify(refreshToken, tokenRefresh, s.cfg.RefreshSecret)
	if err != nil {
		return "", 0, err
	}
	acc, err := s.accounts.Get(ctx, claims.AccountID)
	if err != nil {
		return "", 0, ErrInvalidToken
	}
	signed, err := s.sign(acc, tokenAccess, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

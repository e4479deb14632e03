package tokenmanager

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkiryanov/realestate/internal/models"
)

const (
	defaultAccessTokenTTL  = 30 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"

	// Value of "type" claim of refresh tokens. Access tokens have no such claim
	refreshTokenType = string(models.TokenRefresh)
)

var (
	ErrTokenInvalid   = errors.New("token invalid")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Access token payload: {sub, role, exp}
type AccessClaims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`

	// Never set on issued access tokens
	// Decoded only to reject refresh tokens presented as access ones
	Type string `json:"type,omitempty"`
}

// Refresh token payload: {sub, role, name, avatar, exp, type}
type RefreshClaims struct {
	jwt.RegisteredClaims
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	Avatar *string     `json:"avatar"`
	Type   string      `json:"type"`
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT HMAC algorithm: HS256, HS384 or HS512
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock used to issue and validate tokens, time.Now if nil
	Now func() time.Time
}

// Stateless token manager: validity of the token is its signature and expiry only
type TokenManager struct {
	key        []byte
	alg        jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, ok := jwt.GetSigningMethod(strings.ToUpper(cfg.Alg)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q, only HMAC ones allowed", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		key:        []byte(cfg.SecretKey),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// Issue access token for the subject
// If ttl is zero the default access ttl is used
func (m *TokenManager) IssueAccess(subject string, role models.Role, ttl time.Duration) (models.IssuedToken, error) {
	if ttl == 0 {
		ttl = m.accessTTL
	}
	expiresAt := m.now().Truncate(time.Second).Add(ttl)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}

	value, err := jwt.NewWithClaims(m.alg, claims).SignedString(m.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Kind: models.TokenAccess, Value: value, ExpiresAt: expiresAt}, nil
}

// Issue refresh token for the subject with the default refresh ttl
func (m *TokenManager) IssueRefresh(subject string, role models.Role, name string, avatar *string) (models.IssuedToken, error) {
	expiresAt := m.now().Truncate(time.Second).Add(m.refreshTTL)

	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:   role,
		Name:   name,
		Avatar: avatar,
		Type:   refreshTokenType,
	}

	value, err := jwt.NewWithClaims(m.alg, claims).SignedString(m.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.IssuedToken{Kind: models.TokenRefresh, Value: value, ExpiresAt: expiresAt}, nil
}

// Parse and validate access token
// Fails with ErrTokenInvalid if signature or expiry is wrong, or with ErrWrongTokenType if it is not an access token
func (m *TokenManager) ParseAccess(access string) (AccessClaims, error) {
	var claims AccessClaims
	if err := m.parse(access, &claims); err != nil {
		return claims, err
	}

	if claims.Type != "" {
		return claims, ErrWrongTokenType
	}

	return claims, nil
}

// Parse and validate refresh token
// Fails with ErrTokenInvalid if signature or expiry is wrong, or with ErrWrongTokenType if it is not a refresh token
func (m *TokenManager) ParseRefresh(refresh string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := m.parse(refresh, &claims); err != nil {
		return claims, err
	}

	if claims.Type != refreshTokenType {
		return claims, ErrWrongTokenType
	}

	return claims, nil
}

func (m *TokenManager) parse(value string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	return nil
}

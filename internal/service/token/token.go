package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/transport"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

// IssuePair signs a fresh access/refresh pair and persists the refresh token.
func (t *TokenService) IssuePair(user *models.User) (transport.TokenPair, error) {
	access, err := t.SignAccessToken(user)
	if err != nil {
		return transport.TokenPair{}, err
	}

	refresh, err := t.SignRefreshToken(user)
	if err != nil {
		return transport.TokenPair{}, err
	}

	if err := t.SaveRefreshToken(refresh, user.ID); err != nil {
		return transport.TokenPair{}, err
	}

	return transport.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *TokenService) SignAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"su":   user.IsSuperuser,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.JWTSecret)
}

func (t *TokenService) SignRefreshToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID,
		"typ": "refresh",
		"jti": uuid.NewString(),
		"exp": time.Now().Add(RefreshTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.RefreshSecret)
}

func (t *TokenService) SaveRefreshToken(token string, userID uint) error {
	rec := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTTL),
		Revoked:   false,
	}
	if err := t.DB.Create(&rec).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (t *TokenService) ValidateRefresh(rawToken string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(rawToken, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", tok.Header["alg"])
		}
		return t.RefreshSecret, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("cannot parse claims")
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, errors.New("not a refresh token")
	}

	var stored models.RefreshToken
	if err := t.DB.Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("refresh token not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if stored.Revoked {
		return nil, errors.New("refresh token revoked")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, errors.New("refresh token expired")
	}

	return claims, nil
}

// RotateToken validates a refresh token, revokes it and issues a new pair.
// The user's current role is re-read from the DB so a role change takes
// effect on the next rotation.
func (t *TokenService) RotateToken(rawToken string) (transport.TokenPair, error) {
	claims, err := t.ValidateRefresh(rawToken)
	if err != nil {
		return transport.TokenPair{}, err
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return transport.TokenPair{}, errors.New("invalid subject claim")
	}

	var user models.User
	if err := t.DB.First(&user, uint(sub)).Error; err != nil {
		return transport.TokenPair{}, errors.New("user not found")
	}

	if err := t.RevokeRefresh(rawToken); err != nil {
		return transport.TokenPair{}, err
	}

	return t.IssuePair(&user)
}

func (t *TokenService) RevokeRefresh(rawToken string) error {
	if err := t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

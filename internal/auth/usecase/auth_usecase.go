package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthUsecase verifies access tokens issued by the accounts service
type AuthUsecase interface {
	// ValidateToken returns the user id carried by a valid access token
	ValidateToken(tokenString string) (string, error)
	// IssueToken signs an access token, used by internal tooling and tests
	IssueToken(userID string, ttl time.Duration) (string, error)
}

type authUsecase struct {
	secret []byte
	now    func() time.Time
}

func NewAuthUsecase(jwtSecret string) AuthUsecase {
	return &authUsecase{secret: []byte(jwtSecret), now: time.Now}
}

func (u *authUsecase) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := u.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.secret)
}

func (u *authUsecase) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(u.now))

	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("invalid token claims")
	}

	return userID, nil
}

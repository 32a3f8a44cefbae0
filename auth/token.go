package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chat-relay/errors"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the relay's credentials. It implements
// contract.CredentialVerifier: the subject identifier handed to the
// broadcaster only ever comes out of Verify.
type TokenService struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

func NewTokenService(secret []byte, issuer string, duration time.Duration) *TokenService {
	return &TokenService{secret: secret, issuer: issuer, duration: duration}
}

// Issue creates a signed JWT for a specific user.
func (s *TokenService) Issue(userID string, roles []string) (string, error) {
	expirationTime := time.Now().Add(s.duration)

	claims := &CustomClaims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
		},
	}

	// HS256 (HMAC with SHA256), signed with the server's secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates the signature and expiration of a JWT string
// and returns the subject identifier it was issued for.
// Any parse, signature or expiry failure collapses into ErrInvalidCredentials:
// the sender only ever learns that the credential was rejected.
func (s *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", errors.ErrInvalidCredentials
	}
	return claims.UserID, nil
}

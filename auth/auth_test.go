package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/errors"
)

var testSecret = []byte("unit_test_secret_key_for_chat_relay")

func TestTokenService_IssueAndVerify(t *testing.T) {
	req := require.New(t)
	svc := NewTokenService(testSecret, "chat-relay", time.Hour)

	token, err := svc.Issue("uid-42", []string{"user"})
	req.NoError(err)
	req.NotEmpty(token)

	subjectID, err := svc.Verify(token)
	req.NoError(err)
	req.Equal("uid-42", subjectID)
}

func TestTokenService_Verify_Expired(t *testing.T) {
	req := require.New(t)
	svc := NewTokenService(testSecret, "chat-relay", -time.Minute)

	token, err := svc.Issue("uid-42", []string{"user"})
	req.NoError(err)

	_, err = svc.Verify(token)
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestTokenService_Verify_Garbage(t *testing.T) {
	req := require.New(t)
	svc := NewTokenService(testSecret, "chat-relay", time.Hour)

	_, err := svc.Verify("not-a-jwt")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestTokenService_Verify_WrongKey(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenService([]byte("another_secret_entirely_here"), "chat-relay", time.Hour)
	verifier := NewTokenService(testSecret, "chat-relay", time.Hour)

	token, err := issuer.Issue("uid-42", []string{"user"})
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestHashAndComparePassword(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3rS3cret!Pass")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	match, err := ComparePassword("Sup3rS3cret!Pass", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword1!", hash)
	req.NoError(err)
	req.False(match)
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "valid request", email: "user@example.com", password: "ComplexPass123!", wantErr: false},
		{name: "bad email", email: "not-an-email", password: "ComplexPass123!", wantErr: true},
		{name: "too short", email: "user@example.com", password: "Cp1!", wantErr: true},
		{name: "no complexity", email: "user@example.com", password: "alllowercaseonly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(RegisterRequest{Email: tt.email, Password: tt.password})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

package services

import (
	"fmt"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
)

type IAuthService interface {
	Login(email, password string) (Token, error)
	Register(email, password string) (Token, error)
}

type AuthService struct {
	userRepository storage.IUserRepository
	tokens         *auth.TokenService
}

type Token string

func NewAuthService(repo storage.IUserRepository, tokens *auth.TokenService) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(email, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Password: password,
	}

	// Business rules first, before any expensive cryptographic work
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens here so the repository never sees a plain password
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, hashedPassword)
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists if the email is taken
	}

	token, err := s.tokens.Issue(userID, []string{"user"})
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

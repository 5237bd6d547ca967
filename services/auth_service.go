package services

import (
	"fmt"
	"time"

	"talkline/auth"
	"talkline/domain"
	"talkline/errors"
	"talkline/repositories"
)

type IAuthService interface {
	Login(displayName, password string) (Token, domain.Identity, error)
	Register(displayName, password string) (Token, domain.Identity, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokenDuration time.Duration) IAuthService {
	return &AuthService{userRepository: repo, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(displayName, password string) (Token, domain.Identity, error) {
	valReq := auth.RegisterRequest{
		DisplayName: displayName,
		Password:    password,
	}

	// Validate shape and complexity before any expensive cryptographic work.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens in the service layer to keep the repository unaware of
	// plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.Create(displayName, hashedPassword)
	if err != nil {
		return "", domain.Identity{}, err // Propagates ErrUserAlreadyExists when the name is taken
	}

	token, err := auth.GenerateToken(userID, displayName, s.tokenDuration)
	if err != nil {
		return "", domain.Identity{}, errors.ErrTokenGeneration
	}

	return Token(token), domain.Identity{UserID: userID, DisplayName: displayName}, nil
}

func (s *AuthService) Login(displayName, password string) (Token, domain.Identity, error) {
	account, err := s.userRepository.GetByName(displayName)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", domain.Identity{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil || !match {
		return "", domain.Identity{}, errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(account.ID, account.DisplayName, s.tokenDuration)
	if err != nil {
		return "", domain.Identity{}, errors.ErrTokenGeneration
	}

	return Token(token), domain.Identity{UserID: account.ID, DisplayName: account.DisplayName}, nil
}

package services

import (
	"testing"
	"time"

	"talkline/auth"
	"talkline/errors"
	"talkline/mocks"
	"talkline/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, 24*time.Hour)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		displayName := "alice"
		password := "ComplexPass123!"
		expectedUserID := "user-uuid"

		// Expect Create to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			Create(displayName, gomock.Any()).
			Return(expectedUserID, nil).
			Times(1)

		token, identity, err := svc.Register(displayName, password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(expectedUserID, identity.UserID)
		req.Equal(displayName, identity.DisplayName)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		token, _, err := svc.Register("alice", "simple")

		req.Error(err)
		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when display name is already taken", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			Create("alice", gomock.Any()).
			Return("", errors.ErrUserAlreadyExists).
			Times(1)

		_, _, err := svc.Register("alice", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, 24*time.Hour)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		password := "Secret123456!"

		hashedPassword, _ := auth.HashPassword(password)
		storedUser := repositories.User{
			ID:           "uuid-123",
			DisplayName:  "alice",
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetByName("alice").
			Return(storedUser, nil).
			Times(1)

		token, identity, err := svc.Login("alice", password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(storedUser.ID, identity.UserID)

		claims, err := auth.ValidateToken(string(token))
		req.NoError(err)
		req.Equal(storedUser.ID, claims.UserID)
		req.Equal("alice", claims.DisplayName)
	})

	t.Run("should return invalid credentials on a wrong password", func(t *testing.T) {
		req := require.New(t)

		hashedPassword, _ := auth.HashPassword("CorrectPassword123!")
		storedUser := repositories.User{
			DisplayName:  "alice",
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetByName("alice").
			Return(storedUser, nil).
			Times(1)

		_, _, err := svc.Login("alice", "WrongPassword123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetByName("unknown").
			Return(repositories.User{}, errors.ErrInvalidCredentials).
			Times(1)

		_, _, err := svc.Login("unknown", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}

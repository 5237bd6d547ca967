package services

import (
	"talkline/domain"
	"talkline/repositories"
)

type IDirectoryService interface {
	List(filter string) ([]domain.User, error)
}

// DirectoryService is the read-only user listing backing contact selection.
// filter is a case-insensitive substring match on display names.
type DirectoryService struct {
	users repositories.IUserRepository
}

func NewDirectoryService(users repositories.IUserRepository) *DirectoryService {
	return &DirectoryService{users: users}
}

func (s *DirectoryService) List(filter string) ([]domain.User, error) {
	return s.users.List(filter)
}

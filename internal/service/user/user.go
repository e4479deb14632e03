package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/filestore"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository"
	"github.com/nkiryanov/realestate/internal/service/auth"
)

// Storage for uploaded avatars
type FileStore interface {
	Save(dir string, name string, r io.Reader) (string, error)
	Replace(staged string, dir string) error
	RemoveDir(dir string) error
	URL(dir string, name string) string
}

// Fields of a new user
type CreateParams struct {
	Name        string
	Username    string
	Email       string
	PhoneNumber string
	Password    string
	Role        models.Role
}

// Fields admin may change, password is changed by the user only
type UpdateParams struct {
	Name        string
	Username    string
	Email       string
	PhoneNumber string
	Role        models.Role
}

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
	files   FileStore
	logger  logger.Logger
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage, files FileStore, l logger.Logger) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
		files:   files,
		logger:  l,
	}
}

// Create active user with hashed password
// Avatar is optional and saved as avatars/<user id>/avatar.<ext>
func (s *UserService) CreateUser(ctx context.Context, p CreateParams, avatar *filestore.Upload) (models.User, error) {
	var user models.User
	if !p.Role.Valid() {
		return user, apperrors.ErrInvalidRole
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user = models.User{
		ID:             uuid.New(),
		Name:           p.Name,
		Username:       p.Username,
		Email:          p.Email,
		PhoneNumber:    p.PhoneNumber,
		IsActive:       true,
		HashedPassword: hash,
		Role:           p.Role,
	}

	if avatar != nil {
		name, err := s.saveAvatar(avatarDir(user.ID), avatar)
		if err != nil {
			return models.User{}, err
		}
		url := s.files.URL(avatarDir(user.ID), name)
		user.AvatarURL = &url
	}

	created, err := s.storage.User().CreateUser(ctx, user)
	if err != nil {
		if avatar != nil {
			s.removeDir(avatarDir(user.ID))
		}
		return created, err
	}

	s.logger.Info("User created", "user_id", created.ID, "role", created.Role)
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.storage.User().ListUsers(ctx, "")
}

func (s *UserService) ListAgents(ctx context.Context) ([]models.User, error) {
	return s.storage.User().ListUsers(ctx, models.RoleAgent)
}

// Update user fields; new avatar, if given, replaces the old one
// The new avatar is staged and the old one is kept until the user is saved
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, p UpdateParams, avatar *filestore.Upload) (models.User, error) {
	if !p.Role.Valid() {
		return models.User{}, apperrors.ErrInvalidRole
	}

	var staged, avatarURL string
	if avatar != nil {
		staged = filestore.StagingDir()
		name, err := s.saveAvatar(staged, avatar)
		if err != nil {
			s.removeDir(staged)
			return models.User{}, err
		}
		avatarURL = s.files.URL(avatarDir(id), name)
	}

	var updated models.User
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err := storage.User().GetUserByID(ctx, id)
		if err != nil {
			return err
		}

		user.Name = p.Name
		user.Username = p.Username
		user.Email = p.Email
		user.PhoneNumber = p.PhoneNumber
		user.Role = p.Role

		if avatar != nil {
			user.AvatarURL = &avatarURL
		}

		updated, err = storage.User().UpdateUser(ctx, user)
		return err
	})
	if err != nil {
		if staged != "" {
			s.removeDir(staged)
		}
		return models.User{}, err
	}

	if staged != "" {
		if err := s.files.Replace(staged, avatarDir(id)); err != nil {
			s.logger.Error("Failed to replace avatar", "user_id", id, "error", err)
		}
	}

	s.logger.Info("User updated", "user_id", updated.ID)
	return updated, nil
}

// Change own username and password, the old password has to be confirmed
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, username string, oldPassword string, newPassword string) (models.User, error) {
	var updated models.User
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err := storage.User().GetUserByID(ctx, id)
		if err != nil {
			return err
		}

		if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
			return apperrors.ErrWrongOldPassword
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("can't use this as password, Err: %w", err)
		}

		user.Username = username
		user.HashedPassword = hash

		updated, err = storage.User().UpdateUser(ctx, user)
		return err
	})
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("User profile updated", "user_id", updated.ID)
	return updated, nil
}

// Delete user and its avatar
// Agent still owning properties can't be deleted
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.storage.User().DeleteUser(ctx, id); err != nil {
		return err
	}

	s.removeDir(avatarDir(id))
	s.logger.Info("User deleted", "user_id", id)
	return nil
}

func avatarDir(userID uuid.UUID) string {
	return path.Join("avatars", userID.String())
}

// Save avatar as dir/avatar.<ext> and return its file name
func (s *UserService) saveAvatar(dir string, avatar *filestore.Upload) (string, error) {
	ext := strings.ToLower(path.Ext(avatar.Name))
	url, err := s.files.Save(dir, "avatar"+ext, avatar.Content)

	switch {
	case errors.Is(err, filestore.ErrInvalidName):
		return "", apperrors.ErrInvalidFileName
	case err != nil:
		return "", fmt.Errorf("failed to save avatar image. Err: %w", err)
	default:
		return path.Base(url), nil
	}
}

// Failure to remove files is logged only, the user record is the source of truth
func (s *UserService) removeDir(dir string) {
	if err := s.files.RemoveDir(dir); err != nil {
		s.logger.Warn("Failed to remove avatar directory", "dir", dir, "error", err)
	}
}

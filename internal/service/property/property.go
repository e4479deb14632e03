package property

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
)

// Only images with this prefix are shown in property lists
const listImagePrefix = "home"

// Storage for uploaded property images
type FileStore interface {
	Save(dir string, name string, r io.Reader) (string, error)
	Replace(staged string, dir string) error
	RemoveDir(dir string) error
	URL(dir string, name string) string
}

// Filters of the public property list, zero values are ignored
type ListFilter = repository.ListPropertiesOpts

type PropertyService struct {
	storage repository.Storage
	files   FileStore
	logger  logger.Logger
}

func NewService(storage repository.Storage, files FileStore, l logger.Logger) *PropertyService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &PropertyService{
		storage: storage,
		files:   files,
		logger:  l,
	}
}

// Create property of the agent and save its images
// Fails with apperrors.ErrAgentNotFound if there is no such user, or apperrors.ErrNotAnAgent if user is not an agent
func (s *PropertyService) CreateProperty(ctx context.Context, p models.Property, images []filestore.Upload) (models.Property, error) {
	p.ID = uuid.New()
	p.Featured = false
	p.Status = models.PropertyAvailable

	var created models.Property
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		if err := checkAgent(ctx, storage, p.AgentID); err != nil {
			return err
		}

		names, err := s.saveImages(imageDir(p.ID), images)
		if err != nil {
			return err
		}
		p.Images = names

		created, err = storage.Property().CreateProperty(ctx, p)
		return err
	})
	if err != nil {
		s.removeDir(imageDir(p.ID))
		return models.Property{}, err
	}

	s.logger.Info("Property created", "property_id", created.ID, "agent_id", created.AgentID)
	return created, nil
}

// Property with all its images and agent
func (s *PropertyService) GetProperty(ctx context.Context, id uuid.UUID) (models.PropertyDetails, error) {
	return s.storage.Property().GetProperty(ctx, id)
}

// List available properties
// Only "home*" images of every property are returned
func (s *PropertyService) ListProperties(ctx context.Context, filter ListFilter) ([]models.Property, error) {
	filter.Status = models.PropertyAvailable
	filter.Featured = false

	properties, err := s.storage.Property().ListProperties(ctx, filter)
	if err != nil {
		return nil, err
	}
	return withListImages(properties), nil
}

// List available featured properties
func (s *PropertyService) ListFeatured(ctx context.Context) ([]models.Property, error) {
	properties, err := s.storage.Property().ListProperties(ctx, repository.ListPropertiesOpts{
		Status:   models.PropertyAvailable,
		Featured: true,
	})
	if err != nil {
		return nil, err
	}
	return withListImages(properties), nil
}

// Update property fields
// If images are given they replace all the old ones, otherwise old images are kept
// New images are staged and the old ones are kept until the property is saved
func (s *PropertyService) UpdateProperty(ctx context.Context, id uuid.UUID, p models.Property, images []filestore.Upload) (models.Property, error) {
	p.ID = id
	p.Images = nil

	var staged string
	if len(images) > 0 {
		staged = filestore.StagingDir()
		names, err := s.saveImages(staged, images)
		if err != nil {
			s.removeDir(staged)
			return models.Property{}, err
		}
		p.Images = names
	}

	var updated models.Property
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		if _, err := storage.Property().GetProperty(ctx, id); err != nil {
			return err
		}
		if err := checkAgent(ctx, storage, p.AgentID); err != nil {
			return err
		}

		var err error
		updated, err = storage.Property().UpdateProperty(ctx, p)
		return err
	})
	if err != nil {
		if staged != "" {
			s.removeDir(staged)
		}
		return models.Property{}, err
	}

	if staged != "" {
		if err := s.files.Replace(staged, imageDir(id)); err != nil {
			s.logger.Error("Failed to replace property images", "property_id", id, "error", err)
		}
	}

	s.logger.Info("Property updated", "property_id", id)
	return updated, nil
}

// Delete property with its images and appointments
func (s *PropertyService) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	if err := s.storage.Property().DeleteProperty(ctx, id); err != nil {
		return err
	}

	s.removeDir(imageDir(id))
	s.logger.Info("Property deleted", "property_id", id)
	return nil
}

func (s *PropertyService) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (models.Property, error) {
	return s.storage.Property().SetFeatured(ctx, id, featured)
}

func (s *PropertyService) SetStatus(ctx context.Context, id uuid.UUID, status models.PropertyStatus) (models.Property, error) {
	if !status.Valid() {
		return models.Property{}, apperrors.ErrInvalidPropertyStatus
	}
	return s.storage.Property().SetStatus(ctx, id, status)
}

// Public URL of the property image
func (s *PropertyService) ImageURL(propertyID uuid.UUID, name string) string {
	return s.files.URL(imageDir(propertyID), name)
}

func checkAgent(ctx context.Context, storage repository.Storage, agentID uuid.UUID) error {
	agent, err := storage.User().GetUserByID(ctx, agentID)

	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return apperrors.ErrAgentNotFound
	case err != nil:
		return err
	case agent.Role != models.RoleAgent:
		return apperrors.ErrNotAnAgent
	default:
		return nil
	}
}

func imageDir(propertyID uuid.UUID) string {
	return path.Join("properties", propertyID.String())
}

// Save images to dir and return their file names
// Repeated names get a numeric suffix, e.g. home.jpg and home_2.jpg
func (s *PropertyService) saveImages(dir string, images []filestore.Upload) ([]string, error) {
	names := make([]string, 0, len(images))
	taken := make(map[string]bool, len(images))

	for _, img := range images {
		name, err := filestore.BaseName(img.Name)
		if err != nil {
			return nil, apperrors.ErrInvalidFileName
		}
		name = uniqueName(name, taken)
		taken[name] = true

		url, err := s.files.Save(dir, name, img.Content)
		switch {
		case errors.Is(err, filestore.ErrInvalidName):
			return nil, apperrors.ErrInvalidFileName
		case err != nil:
			return nil, fmt.Errorf("failed to save property image. Err: %w", err)
		}
		names = append(names, path.Base(url))
	}
	return names, nil
}

func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}

// Failure to remove files is logged only, the property record is the source of truth
func (s *PropertyService) removeDir(dir string) {
	if err := s.files.RemoveDir(dir); err != nil {
		s.logger.Warn("Failed to remove property images", "dir", dir, "error", err)
	}
}

func withListImages(properties []models.Property) []models.Property {
	for i := range properties {
		home := make([]string, 0, len(properties[i].Images))
		for _, name := range properties[i].Images {
			if strings.HasPrefix(name, listImagePrefix) {
				home = append(home, name)
			}
		}
		properties[i].Images = home
	}
	return properties
}

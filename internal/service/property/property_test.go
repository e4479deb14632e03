package property

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/filestore"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository"
	"github.com/nkiryanov/realestate/internal/repository/postgres"
	"github.com/nkiryanov/realestate/internal/testutil"
)

func upload(name string) filestore.Upload {
	return filestore.Upload{Name: name, Content: strings.NewReader(name)}
}

func newProperty(agentID uuid.UUID, city string, price string) models.Property {
	floor := 3
	return models.Property{
		Title:       "Flat in " + city,
		Description: "Sunny flat",
		City:        city,
		Address:     "Main street 1",
		Bedrooms:    2,
		Bathrooms:   1,
		Size:        70,
		Price:       decimal.RequireFromString(price),
		Latitude:    9.0,
		Longitude:   38.7,
		Floor:       &floor,
		Type:        models.PropertyApartment,
		SaleOrRent:  models.ForRent,
		AgentID:     agentID,
	}
}

func TestProperty(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, fn func(s *PropertyService, storage repository.Storage, files *filestore.Store, agent models.User)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			files, err := filestore.New(t.TempDir(), "/uploads")
			require.NoError(t, err)

			storage := postgres.NewStorage(tx)
			agent := testutil.CreateUser(t, storage, models.RoleAgent)

			fn(NewService(storage, files, nil), storage, files, agent)
		})
	}

	t.Run("CreateProperty", func(t *testing.T) {
		t.Run("with images", func(t *testing.T) {
			withTx(t, func(s *PropertyService, _ repository.Storage, files *filestore.Store, agent models.User) {
				p, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1500"), []filestore.Upload{
					upload("home1.jpg"), upload("kitchen.jpg"),
				})

				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, p.ID)
				assert.Equal(t, models.PropertyAvailable, p.Status)
				assert.False(t, p.Featured)
				assert.True(t, decimal.RequireFromString("1500").Equal(p.Price))
				assert.ElementsMatch(t, []string{"home1.jpg", "kitchen.jpg"}, p.Images)

				_, err = os.Stat(filepath.Join(files.Root(), "properties", p.ID.String(), "kitchen.jpg"))
				require.NoError(t, err, "image has to be saved")
			})
		})

		t.Run("same image names", func(t *testing.T) {
			withTx(t, func(s *PropertyService, _ repository.Storage, files *filestore.Store, agent models.User) {
				p, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1500"), []filestore.Upload{
					upload("home.jpg"), upload("home.jpg"), upload("a/home.jpg"),
				})

				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"home.jpg", "home_2.jpg", "home_3.jpg"}, p.Images)
				for _, name := range p.Images {
					_, err = os.Stat(filepath.Join(files.Root(), "properties", p.ID.String(), name))
					require.NoError(t, err, name)
				}
			})
		})

		t.Run("invalid image name", func(t *testing.T) {
			withTx(t, func(s *PropertyService, _ repository.Storage, files *filestore.Store, agent models.User) {
				_, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1500"), []filestore.Upload{upload("home1.jpg"), upload(".jpg")})

				require.ErrorIs(t, err, apperrors.ErrInvalidFileName)
				require.ErrorIs(t, err, apperrors.ErrInvalidInput)
				entries, err := os.ReadDir(filepath.Join(files.Root(), "properties"))
				require.NoError(t, err)
				require.Empty(t, entries, "saved images of not created property are removed")
			})
		})

		t.Run("agent not found", func(t *testing.T) {
			withTx(t, func(s *PropertyService, _ repository.Storage, files *filestore.Store, _ models.User) {
				_, err := s.CreateProperty(t.Context(), newProperty(uuid.New(), "Adama", "1500"), []filestore.Upload{upload("home1.jpg")})

				require.ErrorIs(t, err, apperrors.ErrAgentNotFound)
				entries, err := os.ReadDir(files.Root())
				require.NoError(t, err)
				require.Empty(t, entries, "no images saved for not created property")
			})
		})

		t.Run("user is not an agent", func(t *testing.T) {
			withTx(t, func(s *PropertyService, storage repository.Storage, _ *filestore.Store, _ models.User) {
				admin := testutil.CreateUser(t, storage, models.RoleAdmin)

				_, err := s.CreateProperty(t.Context(), newProperty(admin.ID, "Adama", "1500"), nil)

				require.ErrorIs(t, err, apperrors.ErrNotAnAgent)
				require.ErrorIs(t, err, apperrors.ErrForbidden)
			})
		})
	})

	t.Run("ListProperties", func(t *testing.T) {
		withTx(t, func(s *PropertyService, storage repository.Storage, _ *filestore.Store, agent models.User) {
			other := testutil.CreateUser(t, storage, models.RoleAgent)

			cheap, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), []filestore.Upload{upload("home1.jpg"), upload("bath.jpg")})
			require.NoError(t, err)
			pricey, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Hawassa", "9000"), nil)
			require.NoError(t, err)
			sold, err := s.CreateProperty(t.Context(), newProperty(other.ID, "Adama", "1200"), nil)
			require.NoError(t, err)
			_, err = s.SetStatus(t.Context(), sold.ID, models.PropertySold)
			require.NoError(t, err)

			ids := func(properties []models.Property) []uuid.UUID {
				res := make([]uuid.UUID, 0, len(properties))
				for _, p := range properties {
					res = append(res, p.ID)
				}
				return res
			}
			minPrice := decimal.RequireFromString("5000")
			maxPrice := decimal.RequireFromString("5000")

			tests := []struct {
				name     string
				filter   ListFilter
				expected []uuid.UUID
			}{
				{"available only", ListFilter{}, []uuid.UUID{cheap.ID, pricey.ID}},
				{"by city", ListFilter{City: "Adama"}, []uuid.UUID{cheap.ID}},
				{"min price", ListFilter{MinPrice: &minPrice}, []uuid.UUID{pricey.ID}},
				{"max price", ListFilter{MaxPrice: &maxPrice}, []uuid.UUID{cheap.ID}},
				{"by agent", ListFilter{AgentID: other.ID}, []uuid.UUID{}},
				{"by type", ListFilter{Type: models.PropertyLand}, []uuid.UUID{}},
				{"by sale or rent", ListFilter{SaleOrRent: models.ForRent}, []uuid.UUID{cheap.ID, pricey.ID}},
				{"status filter ignored", ListFilter{Status: models.PropertySold}, []uuid.UUID{cheap.ID, pricey.ID}},
			}

			for _, tt := range tests {
				got, err := s.ListProperties(t.Context(), tt.filter)
				require.NoError(t, err, tt.name)
				assert.ElementsMatch(t, tt.expected, ids(got), tt.name)
			}

			got, err := s.ListProperties(t.Context(), ListFilter{City: "Adama"})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, []string{"home1.jpg"}, got[0].Images, "only home images are listed")
		})
	})

	t.Run("ListFeatured", func(t *testing.T) {
		withTx(t, func(s *PropertyService, _ repository.Storage, _ *filestore.Store, agent models.User) {
			featured, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), nil)
			require.NoError(t, err)
			_, err = s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), nil)
			require.NoError(t, err)

			got, err := s.SetFeatured(t.Context(), featured.ID, true)
			require.NoError(t, err)
			require.True(t, got.Featured)

			list, err := s.ListFeatured(t.Context())
			require.NoError(t, err)
			require.Len(t, list, 1)
			require.Equal(t, featured.ID, list[0].ID)

			_, err = s.SetStatus(t.Context(), featured.ID, models.PropertyRented)
			require.NoError(t, err)
			list, err = s.ListFeatured(t.Context())
			require.NoError(t, err)
			require.Empty(t, list, "not available properties are not featured")
		})
	})

	t.Run("GetProperty", func(t *testing.T) {
		withTx(t, func(s *PropertyService, _ repository.Storage, _ *filestore.Store, agent models.User) {
			created, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), []filestore.Upload{upload("home1.jpg"), upload("bath.jpg")})
			require.NoError(t, err)

			got, err := s.GetProperty(t.Context(), created.ID)

			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"home1.jpg", "bath.jpg"}, got.Images, "all images are returned")
			assert.Equal(t, agent.ID, got.Agent.ID)
			assert.Equal(t, agent.Name, got.Agent.Name)
			assert.Equal(t, agent.Email, got.Agent.Email)
			require.NotNil(t, got.Floor)
			assert.Equal(t, 3, *got.Floor)

			_, err = s.GetProperty(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
		})
	})

	t.Run("UpdateProperty", func(t *testing.T) {
		t.Run("replace images", func(t *testing.T) {
			withTx(t, func(s *PropertyService, _ repository.Storage, files *filestore.Store, agent models.User) {
				created, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), []filestore.Upload{upload("home1.jpg")})
				require.NoError(t, err)

				changes := newProperty(agent.ID, "Bahir Dar", "2000")
				changes.Floor = nil
				updated, err := s.UpdateProperty(t.Context(), created.ID, changes, []filestore.Upload{upload("home2.jpg")})

				require.NoError(t, err)
				assert.Equal(t, "Bahir Dar", updated.City)
				assert.Nil(t, updated.Floor)
				assert.Equal(t, []string{"home2.jpg"}, updated.Images)

				_, err = os.Stat(filepath.Join(files.Root(), "properties", created.ID.String(), "home1.jpg"))
				require.ErrorIs(t, err, os.ErrNotExist, "old images are removed")
			})
		})

		t.Run("failed update keeps old images", func(t *testing.T) {
			withTx(t, func(s *PropertyService, _ repository.Storage, files *filestore.Store, agent models.User) {
				created, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), []filestore.Upload{upload("home1.jpg")})
				require.NoError(t, err)

				_, err = s.UpdateProperty(t.Context(), created.ID, newProperty(uuid.New(), "Adama", "1100"), []filestore.Upload{upload("home2.jpg")})

				require.ErrorIs(t, err, apperrors.ErrAgentNotFound)

				dir := filepath.Join(files.Root(), "properties", created.ID.String())
				_, err = os.Stat(filepath.Join(dir, "home1.jpg"))
				require.NoError(t, err, "old image has to be kept")
				_, err = os.Stat(filepath.Join(dir, "home2.jpg"))
				require.ErrorIs(t, err, os.ErrNotExist)

				staged, err := os.ReadDir(filepath.Join(files.Root(), "staging"))
				require.NoError(t, err)
				require.Empty(t, staged, "staged images have to be removed")

				got, err := s.GetProperty(t.Context(), created.ID)
				require.NoError(t, err)
				assert.Equal(t, []string{"home1.jpg"}, got.Images)
			})
		})

		t.Run("keep images", func(t *testing.T) {
			withTx(t, func(s *PropertyService, _ repository.Storage, _ *filestore.Store, agent models.User) {
				created, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), []filestore.Upload{upload("home1.jpg")})
				require.NoError(t, err)

				updated, err := s.UpdateProperty(t.Context(), created.ID, newProperty(agent.ID, "Adama", "1100"), nil)

				require.NoError(t, err)
				assert.Equal(t, []string{"home1.jpg"}, updated.Images)
			})
		})

		t.Run("not found", func(t *testing.T) {
			withTx(t, func(s *PropertyService, _ repository.Storage, _ *filestore.Store, agent models.User) {
				_, err := s.UpdateProperty(t.Context(), uuid.New(), newProperty(agent.ID, "Adama", "1100"), nil)

				require.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
			})
		})
	})

	t.Run("DeleteProperty", func(t *testing.T) {
		withTx(t, func(s *PropertyService, _ repository.Storage, files *filestore.Store, agent models.User) {
			created, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), []filestore.Upload{upload("home1.jpg")})
			require.NoError(t, err)

			require.NoError(t, s.DeleteProperty(t.Context(), created.ID))

			_, err = s.GetProperty(t.Context(), created.ID)
			require.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
			_, err = os.Stat(filepath.Join(files.Root(), "properties", created.ID.String()))
			require.ErrorIs(t, err, os.ErrNotExist)

			require.ErrorIs(t, s.DeleteProperty(t.Context(), created.ID), apperrors.ErrPropertyNotFound)
		})
	})

	t.Run("SetStatus unknown", func(t *testing.T) {
		withTx(t, func(s *PropertyService, _ repository.Storage, _ *filestore.Store, agent models.User) {
			created, err := s.CreateProperty(t.Context(), newProperty(agent.ID, "Adama", "1000"), nil)
			require.NoError(t, err)

			_, err = s.SetStatus(t.Context(), created.ID, "demolished")

			require.ErrorIs(t, err, apperrors.ErrInvalidPropertyStatus)
		})
	})
}

func TestProperty_ImageURL(t *testing.T) {
	files, err := filestore.New(t.TempDir(), "/uploads")
	require.NoError(t, err)
	s := NewService(nil, files, nil)
	id := uuid.MustParse("6f1c2a8e-3b0d-4f3c-9a51-2d8f0c7e9b11")

	require.Equal(t, "/uploads/properties/6f1c2a8e-3b0d-4f3c-9a51-2d8f0c7e9b11/home1.jpg", s.ImageURL(id, "home1.jpg"))
}

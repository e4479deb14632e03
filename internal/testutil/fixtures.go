package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository"
)

// Create user with the role and unique username, email and phone
// The password hash is not a real hash, so such user can't log in
func CreateUser(t *testing.T, s repository.Storage, role models.Role) models.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	user, err := s.User().CreateUser(t.Context(), models.User{
		Name:           "User " + suffix,
		Username:       "user-" + suffix,
		Email:          fmt.Sprintf("user-%s@example.com", suffix),
		PhoneNumber:    "+25191" + fmt.Sprintf("%07d", uuid.New().ID()%10_000_000),
		IsActive:       true,
		HashedPassword: "not-a-hash",
		Role:           role,
	})
	require.NoError(t, err, "fixture user has to be created")

	return user
}

// Create available property owned by the agent
func CreateProperty(t *testing.T, s repository.Storage, agentID uuid.UUID, images ...string) models.Property {
	t.Helper()

	property, err := s.Property().CreateProperty(t.Context(), models.Property{
		Title:       "Cozy flat",
		Description: "Two rooms, close to the city center",
		City:        "Addis Ababa",
		Address:     "Bole road 1",
		Bedrooms:    2,
		Bathrooms:   1,
		Size:        60,
		Price:       decimal.RequireFromString("125000.50"),
		Latitude:    9.01,
		Longitude:   38.76,
		Type:        models.PropertyApartment,
		SaleOrRent:  models.ForSale,
		AgentID:     agentID,
		Images:      images,
	})
	require.NoError(t, err, "fixture property has to be created")

	return property
}

package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository"
	"github.com/nkiryanov/realestate/internal/testutil"
)

func mustParseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func Test_AppointmentRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withProperty := func(t *testing.T, fn func(s repository.Storage, p models.Property)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)
			agent := testutil.CreateUser(t, s, models.RoleAgent)
			fn(s, testutil.CreateProperty(t, s, agent.ID))
		})
	}

	book := func(t *testing.T, s repository.Storage, propertyID uuid.UUID, startsAt string) models.Appointment {
		a, err := s.Appointment().CreateAppointment(t.Context(), models.Appointment{
			CustomerName:  "Almaz",
			CustomerPhone: "+251911000000",
			StartsAt:      mustParseTime(startsAt),
			PropertyID:    propertyID,
		})
		require.NoError(t, err)
		return a
	}

	t.Run("create ok", func(t *testing.T) {
		withProperty(t, func(s repository.Storage, p models.Property) {
			a := book(t, s, p.ID, "2025-01-01T09:00:00Z")

			assert.NotEqual(t, uuid.Nil, a.ID)
			assert.Equal(t, models.AppointmentScheduled, a.Status, "scheduled by default")
			assert.Equal(t, mustParseTime("2025-01-01T09:00:00Z"), a.StartsAt.UTC(), "wall clock stored as is")
			assert.WithinDuration(t, time.Now(), a.CreatedAt, time.Minute)
		})
	})

	t.Run("create for unknown property", func(t *testing.T) {
		withProperty(t, func(s repository.Storage, _ models.Property) {
			_, err := s.Appointment().CreateAppointment(t.Context(), models.Appointment{
				CustomerName: "Almaz", StartsAt: mustParseTime("2025-01-01T09:00:00Z"), PropertyID: uuid.New(),
			})

			require.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
		})
	})

	t.Run("has starts between is half open", func(t *testing.T) {
		withProperty(t, func(s repository.Storage, p models.Property) {
			book(t, s, p.ID, "2025-01-01T09:00:00Z")

			tests := []struct {
				name     string
				from     string
				to       string
				expected bool
			}{
				{"inside", "2025-01-01T08:45:00Z", "2025-01-01T09:15:00Z", true},
				{"from inclusive", "2025-01-01T09:00:00Z", "2025-01-01T10:00:00Z", true},
				{"to exclusive", "2025-01-01T08:00:00Z", "2025-01-01T09:00:00Z", false},
				{"later", "2025-01-01T09:01:00Z", "2025-01-01T10:00:00Z", false},
			}

			for _, tt := range tests {
				got, err := s.Appointment().HasStartsBetween(t.Context(), p.ID, mustParseTime(tt.from), mustParseTime(tt.to))
				require.NoError(t, err, tt.name)
				assert.Equal(t, tt.expected, got, tt.name)
			}

			got, err := s.Appointment().HasStartsBetween(t.Context(), uuid.New(), mustParseTime("2025-01-01T08:00:00Z"), mustParseTime("2025-01-01T10:00:00Z"))
			require.NoError(t, err)
			assert.False(t, got, "other property appointments are not counted")
		})
	})

	t.Run("lock property in transaction", func(t *testing.T) {
		withProperty(t, func(s repository.Storage, p models.Property) {
			err := s.InTx(t.Context(), func(s repository.Storage) error {
				if err := s.Appointment().LockProperty(t.Context(), p.ID); err != nil {
					return err
				}
				return s.Appointment().LockProperty(t.Context(), p.ID)
			})

			require.NoError(t, err, "lock is reentrant for the same transaction")
		})
	})

	t.Run("set status", func(t *testing.T) {
		withProperty(t, func(s repository.Storage, p models.Property) {
			a := book(t, s, p.ID, "2025-01-01T09:00:00Z")

			updated, err := s.Appointment().SetStatus(t.Context(), a.ID, models.AppointmentCancelled)
			require.NoError(t, err)
			assert.Equal(t, models.AppointmentCancelled, updated.Status)
			assert.Equal(t, a.CreatedAt, updated.CreatedAt)

			_, err = s.Appointment().SetStatus(t.Context(), uuid.New(), models.AppointmentCancelled)
			require.ErrorIs(t, err, apperrors.ErrAppointmentNotFound)
		})
	})

	t.Run("list ordered by start", func(t *testing.T) {
		withProperty(t, func(s repository.Storage, p models.Property) {
			late := book(t, s, p.ID, "2025-01-01T11:00:00Z")
			early := book(t, s, p.ID, "2025-01-01T09:00:00Z")

			views, err := s.Appointment().ListAppointments(t.Context(), p.AgentID)

			require.NoError(t, err)
			require.Len(t, views, 2)
			assert.Equal(t, early.ID, views[0].ID)
			assert.Equal(t, late.ID, views[1].ID)
			assert.Equal(t, p.Title, views[0].PropertyTitle)
			assert.Equal(t, p.AgentID, views[0].AgentID)
		})
	})
}

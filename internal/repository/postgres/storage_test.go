package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/repository"
	"github.com/nkiryanov/realestate/internal/testutil"
)

func Test_Storage(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("commit on success", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)

			var id = testUser("committed")
			err := s.InTx(t.Context(), func(s repository.Storage) error {
				created, err := s.User().CreateUser(t.Context(), id)
				id = created
				return err
			})
			require.NoError(t, err)

			_, err = s.User().GetUserByID(t.Context(), id.ID)
			require.NoError(t, err, "user has to be visible after commit")
		})
	})

	t.Run("rollback on error", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)
			fnErr := errors.New("something went wrong")

			var created = testUser("rolledback")
			err := s.InTx(t.Context(), func(s repository.Storage) error {
				var err error
				created, err = s.User().CreateUser(t.Context(), created)
				require.NoError(t, err)
				return fnErr
			})
			require.ErrorIs(t, err, fnErr)

			_, err = s.User().GetUserByID(t.Context(), created.ID)
			require.ErrorIs(t, err, apperrors.ErrUserNotFound, "user must not be saved")
		})
	})
}

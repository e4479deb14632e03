package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("wraps its kind", func(t *testing.T) {
		tests := []struct {
			err  error
			kind error
		}{
			{ErrAppointmentConflict, ErrConflict},
			{ErrAppointmentNotFound, ErrNotFound},
			{ErrInvalidCredentials, ErrUnauthorized},
			{ErrInvalidTokenType, ErrUnauthorized},
			{ErrInsufficientRole, ErrForbidden},
			{ErrEmailTaken, ErrConflict},
		}

		for _, tt := range tests {
			t.Run(tt.err.Error(), func(t *testing.T) {
				require.ErrorIs(t, tt.err, tt.kind)
			})
		}
	})

	t.Run("forbidden never unauthorized", func(t *testing.T) {
		require.NotErrorIs(t, ErrInsufficientRole, ErrUnauthorized)
		require.NotErrorIs(t, ErrCouldNotValidate, ErrForbidden)
	})

	t.Run("kind survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("repo error: %w", ErrUserNotFound)

		require.ErrorIs(t, err, ErrUserNotFound)
		require.ErrorIs(t, err, ErrNotFound)

		var appErr *Error
		require.True(t, errors.As(err, &appErr))
		require.Equal(t, "user not found", appErr.Error())
		require.Equal(t, ErrNotFound, appErr.Kind())
	})
}

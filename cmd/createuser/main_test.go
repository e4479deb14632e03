package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository/postgres"
	"github.com/nkiryanov/realestate/internal/testutil"
)

func Test_parseOptions(t *testing.T) {
	args := []string{
		"--database", "postgres://localhost/test",
		"--username", "root",
		"--password", "password123",
		"--name", "Root Admin",
		"--email", "root@example.com",
		"--phone", "+251911000001",
	}
	noEnv := func(string) string { return "" }

	t.Run("admin by default", func(t *testing.T) {
		o, err := parseOptions(noEnv, args)

		require.NoError(t, err)
		require.Equal(t, "postgres://localhost/test", o.DatabaseDSN)
		require.Equal(t, models.RoleAdmin, o.Params.Role)
		require.Equal(t, "root", o.Params.Username)
	})

	t.Run("database from env", func(t *testing.T) {
		o, err := parseOptions(func(key string) string {
			if key == "DATABASE_URI" {
				return "postgres://env/test"
			}
			return ""
		}, args[2:])

		require.NoError(t, err)
		require.Equal(t, "postgres://env/test", o.DatabaseDSN)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
		}{
			{"unknown role", append([]string{"--role", "owner"}, args...)},
			{"no password", []string{"--database", "postgres://localhost/test", "--username", "root"}},
			{"unknown flag", append([]string{"--superuser"}, args...)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := parseOptions(noEnv, tt.args)

				require.Error(t, err)
			})
		}
	})
}

func Test_run(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	err := run(t.Context(), func(string) string { return "" }, []string{
		"--database", pg.DSN,
		"--username", "agent007",
		"--password", "password123",
		"--role", "agent",
		"--name", "James",
		"--email", "james@example.com",
		"--phone", "+251911000007",
	})
	require.NoError(t, err)

	u, err := postgres.NewStorage(pg.Pool).User().GetUserByUsername(t.Context(), "agent007")
	require.NoError(t, err)
	require.Equal(t, models.RoleAgent, u.Role)
	require.NotEqual(t, "password123", u.HashedPassword)
}

// Command createuser adds a user straight to the database.
// Used to create the first admin, since only admins may create users over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/realestate/internal/db"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository/postgres"
	"github.com/nkiryanov/realestate/internal/service/auth"
	"github.com/nkiryanov/realestate/internal/service/user"
)

type options struct {
	DatabaseDSN string
	Params      user.CreateParams
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Getenv, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "createuser: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, getenv func(string) string, args []string) error {
	opts, err := parseOptions(getenv, args)
	if err != nil {
		return err
	}

	pool, err := db.ConnectAndMigrate(ctx, opts.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	l, err := logger.NewTextLogger(logger.LevelInfo)
	if err != nil {
		return err
	}

	// Avatars are not uploaded from command line, so no file store
	users := user.NewService(auth.DefaultHasher, postgres.NewStorage(pool), nil, l)
	created, err := users.CreateUser(ctx, opts.Params, nil)
	if err != nil {
		return fmt.Errorf("can't create user. Err: %w", err)
	}

	fmt.Printf("%s %s created, id=%s\n", created.Role, created.Username, created.ID)
	return nil
}

// Parse flags; database DSN falls back to DATABASE_URI from environment or '.env' file
func parseOptions(getenv func(string) string, args []string) (options, error) {
	var o options
	role := string(models.RoleAdmin)

	fs := pflag.NewFlagSet("createuser", pflag.ContinueOnError)
	fs.StringVarP(&o.DatabaseDSN, "database", "d", "", "Database connection string")
	fs.StringVar(&o.Params.Username, "username", "", "Username to log in with")
	fs.StringVar(&o.Params.Password, "password", "", "Password")
	fs.StringVar(&role, "role", role, "Role (admin, agent)")
	fs.StringVar(&o.Params.Name, "name", "", "Full name")
	fs.StringVar(&o.Params.Email, "email", "", "Email")
	fs.StringVar(&o.Params.PhoneNumber, "phone", "", "Phone number")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.Params.Role = models.Role(role)

	if o.DatabaseDSN == "" {
		o.DatabaseDSN = getenv("DATABASE_URI")
	}
	if o.DatabaseDSN == "" {
		if env, err := godotenv.Read(); err == nil {
			o.DatabaseDSN = env["DATABASE_URI"]
		}
	}

	switch {
	case o.DatabaseDSN == "":
		return o, errors.New("database DSN is required: pass --database or set DATABASE_URI")
	case o.Params.Username == "" || o.Params.Password == "":
		return o, errors.New("username and password are required")
	case o.Params.Email == "" || o.Params.PhoneNumber == "" || o.Params.Name == "":
		return o, errors.New("name, email and phone are required")
	case !o.Params.Role.Valid():
		return o, fmt.Errorf("unknown role %q", role)
	}

	return o, nil
}

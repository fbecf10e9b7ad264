package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
	"github.com/Togather-Foundation/eventdesk/internal/storage/postgres"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	adminEmail string
	adminName  string
	adminRole  string
)

func newAdminCommand() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
		Long: `Create, disable and re-enable administrator accounts directly in the
database. The database URL comes from --database-url or DATABASE_URL.`,
	}
	adminCmd.PersistentFlags().StringVar(&migrateDatabaseURL, "database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	adminCmd.PersistentFlags().StringVar(&adminEmail, "email", "", "administrator email (required)")

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator",
		Long: `Create an administrator account. The password is read from ADMIN_PASSWORD
so it stays out of shell history. An existing account with the same email is
left untouched.

Example:
  ADMIN_PASSWORD=s3cret-pass server admin create --email ops@example.com --name "Ops" --role SUPER_ADMIN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminRepo(cmd.Context(), func(ctx context.Context, repo *postgres.AdminRepository) error {
				service := admins.NewService(repo, auth.BcryptHasher{Cost: bcrypt.DefaultCost}, nil, zerolog.Nop())
				admin, created, err := service.Provision(ctx, admins.ProvisionParams{
					Email:    adminEmail,
					Password: os.Getenv("ADMIN_PASSWORD"),
					Name:     adminName,
					Role:     adminRole,
				})
				if err != nil {
					return describeProvisionError(err)
				}
				out := cmd.OutOrStdout()
				if !created {
					fmt.Fprintf(out, "admin %s already exists (id %s)\n", admin.Email, admin.ID)
					return nil
				}
				fmt.Fprintf(out, "created %s %s (id %s)\n", admin.Role, admin.Email, admin.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&adminName, "name", "Admin User", "display name")
	create.Flags().StringVar(&adminRole, "role", string(auth.RoleAdmin), "role (ADMIN or SUPER_ADMIN)")

	adminCmd.AddCommand(create, newSetActiveCommand("disable", false), newSetActiveCommand("enable", true))
	return adminCmd
}

func newSetActiveCommand(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: strings.ToUpper(use[:1]) + use[1:] + " an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminRepo(cmd.Context(), func(ctx context.Context, repo *postgres.AdminRepository) error {
				admin, err := repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(adminEmail)))
				if err != nil {
					if errors.Is(err, admins.ErrNotFound) {
						return fmt.Errorf("no admin with email %q", adminEmail)
					}
					return err
				}
				if err := repo.SetActive(ctx, admin.ID, active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", use, admin.Email)
				return nil
			})
		},
	}
}

func withAdminRepo(ctx context.Context, fn func(ctx context.Context, repo *postgres.AdminRepository) error) error {
	if adminEmail == "" {
		return errors.New("--email is required")
	}
	dbURL, err := resolveDatabaseURL()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := postgres.Open(ctx, dbURL, 2)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}
	return fn(ctx, repo.Admins())
}

func describeProvisionError(err error) error {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return err
	}
	parts := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		msg := f.Message
		if f.Field == "password" {
			msg += " (set ADMIN_PASSWORD)"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, msg))
	}
	return fmt.Errorf("invalid admin: %s", strings.Join(parts, "; "))
}

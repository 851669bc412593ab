package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier-api/internal/auth"
	"github.com/atelierhq/atelier-api/internal/config"
	"github.com/atelierhq/atelier-api/internal/store"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative tasks",
	}
	cmd.AddCommand(newAdminCreateCommand())
	return cmd
}

func newAdminCreateCommand() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigFlag(cmd)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			st, err := store.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if _, err := st.GetUserByEmail(ctx, email); err == nil {
				return fmt.Errorf("an account with email %s already exists", email)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			user := &store.User{
				ID:           uuid.NewString(),
				Email:        email,
				PasswordHash: hash,
				Name:         name,
				Role:         "admin",
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := st.CreateUser(ctx, user); err != nil {
				return err
			}

			fmt.Printf("Admin account created: %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

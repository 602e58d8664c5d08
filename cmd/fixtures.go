/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/userdesk/apiserver/config"
	"github.com/userdesk/apiserver/internal/db"
	"github.com/userdesk/apiserver/internal/store"
	"github.com/userdesk/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// fixtureUsers are the accounts seeded for local development. The tokens
// are deterministic so clients can be pointed at a fresh database without
// issuing tokens first.
var fixtureUsers = []struct {
	email    string
	password string
	phone    string
	roles    []string
	token    string
}{
	{
		email:    "root@test.com",
		password: "12345678",
		phone:    "+0000000",
		roles:    []string{types.RoleRoot},
		token:    "root-token-for-testing-purposes-1234567890abcdef12345678",
	},
	{
		email:    "test@test.com",
		password: "12345678",
		phone:    "+1111111",
		roles:    []string{types.RoleUser},
		token:    "user1-token-for-testing-purposes-1234567890abcdef1234567",
	},
	{
		email:    "test2@test2.com",
		password: "12345678",
		phone:    "+9999999",
		roles:    []string{types.RoleUser},
		token:    "user2-token-for-testing-purposes-1234567890abcdef1234567",
	},
}

// fixturesCmd represents the fixtures command.
var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Seed development users and API tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer func() {
			_ = dbConn.Close()
		}()

		userRepo := store.NewUserRepository(dbConn)
		tokenRepo := store.NewTokenRepository(dbConn)

		for _, fixture := range fixtureUsers {
			if err := seedUser(cmd.Context(), userRepo, tokenRepo, fixture.email, fixture.password, fixture.phone, fixture.roles, fixture.token); err != nil {
				return err
			}
			fmt.Printf("Seeded %s\n", fixture.email)
		}
		return nil
	},
}

func seedUser(
	ctx context.Context,
	userRepo *store.UserRepository,
	tokenRepo *store.TokenRepository,
	email, password, phone string,
	roles []string,
	token string,
) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", email, err)
	}

	user, err := userRepo.Create(ctx, types.User{
		Email:        email,
		Phone:        phone,
		Roles:        roles,
		PasswordHash: string(hashed),
	})
	if err != nil {
		return fmt.Errorf("create user %s: %w", email, err)
	}

	if _, err := tokenRepo.Create(ctx, types.ApiToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().AddDate(0, 0, 30),
	}); err != nil {
		return fmt.Errorf("create token for %s: %w", email, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(fixturesCmd)
}

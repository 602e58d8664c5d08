/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/userdesk/apiserver/config"
	"github.com/userdesk/apiserver/internal/db"
	"github.com/userdesk/apiserver/internal/services"
	"github.com/userdesk/apiserver/internal/store"
)

var tokenDays int

// createTokenCmd represents the create-token command. Tokens are issued
// out-of-band only; there is no login endpoint.
var createTokenCmd = &cobra.Command{
	Use:   "create-token <email>",
	Short: "Create an API token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		email := args[0]

		days := tokenDays
		if days <= 0 {
			days = cfg.TokenTTLDays
		}

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer func() {
			_ = dbConn.Close()
		}()

		userRepo := store.NewUserRepository(dbConn)
		tokenService := services.NewTokenService(store.NewTokenRepository(dbConn))

		user, err := userRepo.GetByEmail(cmd.Context(), email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("user with email %q not found", email)
			}
			return fmt.Errorf("look up user: %w", err)
		}

		token, err := tokenService.Issue(cmd.Context(), user.ID, days)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		fmt.Printf("API token created successfully!\n")
		fmt.Printf("User: %s\n", email)
		fmt.Printf("Token: %s\n", token.Token)
		fmt.Printf("Expires: %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createTokenCmd)
	createTokenCmd.Flags().IntVarP(&tokenDays, "days", "d", 0, "Token validity in days (default from TOKEN_TTL_DAYS, 30)")
}

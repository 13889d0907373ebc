package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"career-guide/internal/config"
	"career-guide/internal/service"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development access token",
	Long:  "Signs an access token with JWT_SECRET so the result history endpoints can be exercised locally.",
	RunE:  runToken,
}

var (
	tokenUser  string
	tokenEmail string
	tokenTTL   time.Duration
)

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "User id to embed in the token (required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Optional email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")

	if err := tokenCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	jwtSvc := service.NewJWTService(cfg.JWTSecret, tokenTTL)
	if !jwtSvc.Enabled() {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	token, err := jwtSvc.IssueAccessToken(strings.TrimSpace(tokenUser), strings.TrimSpace(tokenEmail))
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

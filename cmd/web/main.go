package main

import (
	"fmt"
	"net"
	"os"

	"github.com/de-tools/compose-audit/pkg/server"
	"github.com/de-tools/compose-audit/pkg/services/audit"
	"github.com/de-tools/compose-audit/pkg/services/policy"
	"github.com/de-tools/compose-audit/pkg/services/rules"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var policyConfig string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the compose audit web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&policyConfig, "policy-config", "c", "",
		"Path to a YAML file with additional policy profiles")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	profiles, err := policy.LoadProfiles(policyConfig)
	if err != nil {
		return fmt.Errorf("failed to load policy profiles: %w", err)
	}

	auditor := audit.NewAuditor(audit.Options{
		Engine: rules.NewEngine(rules.DefaultSettings()),
	})

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	addr := net.JoinHostPort(host, port)
	api := server.NewWebAPI(logger, server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Audit:    auditor,
			Profiles: profiles,
		},
	})

	logger.Info().Msgf("starting server on %s", addr)
	return api.Start()
}

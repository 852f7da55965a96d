package main

import (
	"fmt"
	"os"

	"github.com/de-tools/compose-audit/pkg/runtime/terminal"
	"github.com/de-tools/compose-audit/pkg/services/audit"
	"github.com/de-tools/compose-audit/pkg/services/rules"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cli := terminal.NewCLI(terminal.Options{
		Auditor: audit.NewAuditor(audit.Options{
			Engine: rules.NewEngine(rules.DefaultSettings()),
		}),
		Output: os.Stdout,
		Logger: logger,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

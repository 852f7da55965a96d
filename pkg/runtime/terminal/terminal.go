package terminal

import (
	"io"
	"os"

	"github.com/de-tools/compose-audit/pkg/runtime/terminal/commands"
	"github.com/de-tools/compose-audit/pkg/runtime/terminal/export"
	"github.com/de-tools/compose-audit/pkg/services/audit"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	auditor  *audit.Auditor
	reporter *export.Reporter
	logger   zerolog.Logger
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Auditor *audit.Auditor
	Output  io.Writer
	Logger  zerolog.Logger
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Auditor == nil {
		opts.Auditor = audit.NewAuditor(audit.Options{})
	}

	cli := &CLI{
		auditor:  opts.Auditor,
		reporter: export.NewReporter(opts.Output),
		logger:   opts.Logger,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose-audit",
		Short: "Security linter for docker-compose manifests",
	}

	cmd.AddCommand(commands.NewAuditCmd(cli.auditor, cli.reporter, cli.logger))
	cmd.AddCommand(commands.NewRulesCmd(cli.auditor))

	return cmd
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/de-tools/compose-audit/pkg/adapters"
	"github.com/de-tools/compose-audit/pkg/models/domain"
	"github.com/de-tools/compose-audit/pkg/runtime/terminal/export"
	"github.com/de-tools/compose-audit/pkg/services/audit"
	"github.com/de-tools/compose-audit/pkg/services/discovery"
	"github.com/de-tools/compose-audit/pkg/services/policy"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ErrAuditFailed signals a FAIL decision from the policy gate. The CLI
// entrypoint maps it to a non-zero exit status.
var ErrAuditFailed = errors.New("audit failed: HIGH severity findings not accepted by policy")

type AuditCmd struct {
	root         string
	profileName  string
	policyConfig string
	format       string
	output       string
	workers      int
	auditor      *audit.Auditor
	reporter     *export.Reporter
	logger       zerolog.Logger
}

func NewAuditCmd(auditor *audit.Auditor, reporter *export.Reporter, logger zerolog.Logger) *cobra.Command {
	ac := &AuditCmd{auditor: auditor, reporter: reporter, logger: logger}
	cmd := &cobra.Command{
		Use:          "audit [files...]",
		Short:        "Audit compose manifests for security misconfigurations",
		RunE:         ac.run,
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&ac.root, "root", ".", "Directory to discover compose files in when no files are given")
	cmd.Flags().StringVar(&ac.profileName, "profile", policy.DefaultProfileName, "Policy profile deciding which findings fail the run")
	cmd.Flags().StringVar(&ac.policyConfig, "policy-config", "", "Path to a YAML file with additional policy profiles")
	cmd.Flags().StringVar(&ac.format, "format", "text", "Report format: text or json")
	cmd.Flags().StringVar(&ac.output, "output", "", "Also write the JSON report to this file")
	cmd.Flags().IntVar(&ac.workers, "workers", 0, "Number of files audited concurrently (0 = default)")

	return cmd
}

func (ac *AuditCmd) run(cmd *cobra.Command, args []string) error {
	// A broken policy makes the exit status meaningless, so it aborts
	// before any file is touched.
	profile, err := policy.Resolve(ac.profileName, ac.policyConfig)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths, err = discovery.Find(ac.root)
		if err != nil {
			return err
		}
	}

	ctx := ac.logger.WithContext(cmd.Context())
	ac.logger.Info().Int("files", len(paths)).Str("profile", profile.Name).Msg("starting security audit")

	report := ac.auditor.WithWorkers(ac.workers).Run(ctx, paths)

	if ac.output != "" {
		if err := ac.writeJSONFile(report); err != nil {
			return err
		}
	}

	switch ac.format {
	case "json":
		err = ac.reporter.HandleJSON(report)
	default:
		err = ac.reporter.Handle(report)
	}
	if err != nil {
		return err
	}

	decision := policy.Decide(report, profile)
	if err := ac.reporter.HandleDecision(decision); err != nil {
		return err
	}

	if !decision.Pass {
		return ErrAuditFailed
	}
	return nil
}

func (ac *AuditCmd) writeJSONFile(report domain.AuditReport) error {
	data, err := json.MarshalIndent(adapters.MapAuditReportDomainToApi(report), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(ac.output, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", ac.output, err)
	}
	ac.logger.Info().Str("path", ac.output).Msg("detailed report saved")
	return nil
}

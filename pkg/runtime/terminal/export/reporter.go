package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/compose-audit/pkg/adapters"
	"github.com/de-tools/compose-audit/pkg/models/domain"
	"github.com/de-tools/compose-audit/pkg/services/policy"
)

// Reporter renders audit reports to the console in a formatted text form,
// or as machine-readable JSON.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

type severityGroup struct {
	Severity domain.Severity
	Findings []domain.Finding
}

type reportView struct {
	Report domain.AuditReport
	Groups []severityGroup
}

// Handle renders the human-readable report: summary, findings grouped by
// severity in fixed order, and the remediation checklist.
func (c *Reporter) Handle(report domain.AuditReport) error {
	tmpl := `
============================================================
SECURITY AUDIT REPORT
============================================================
Files scanned: {{.Report.FilesScanned}}
Total findings: {{.Report.TotalFindings}}
{{if .Groups}}
Findings by severity:
{{- range .Groups}}
  {{.Severity}}: {{len .Findings}}
{{- end}}

Detailed findings:
------------------------------------------------------------
{{- range .Groups}}

{{.Severity}} SEVERITY:
{{- range .Findings}}
  - {{.Message}}{{if .File}} ({{.File}}){{end}}
{{- end}}
{{- end}}

Recommendations:
------------------------------
1. Address HIGH and MEDIUM severity findings immediately
2. Review volume mounts for unnecessary host access
3. Use specific image tags instead of 'latest'
4. Implement proper user configurations
5. Add security hardening options like 'no-new-privileges'
6. Consider using secrets management for sensitive data
{{else}}
No security issues found.
{{end}}`

	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	view := reportView{Report: report}
	for _, severity := range domain.Severities {
		findings := report.FindingsBySeverity(severity)
		if len(findings) == 0 {
			continue
		}
		view.Groups = append(view.Groups, severityGroup{Severity: severity, Findings: findings})
	}

	return t.Execute(c.writer, view)
}

// HandleDecision renders the policy gate outcome.
func (c *Reporter) HandleDecision(decision policy.Decision) error {
	if decision.Pass {
		_, err := fmt.Fprintf(c.writer, "\nPolicy '%s': PASS\n", decision.Profile)
		return err
	}

	if _, err := fmt.Fprintf(c.writer,
		"\nPolicy '%s': FAIL - %d finding(s) need attention:\n",
		decision.Profile, len(decision.Failing)); err != nil {
		return err
	}
	for _, finding := range decision.Failing {
		if _, err := fmt.Fprintf(c.writer, "  - %s\n", finding.Message); err != nil {
			return err
		}
	}
	return nil
}

// HandleJSON writes the machine-readable report.
func (c *Reporter) HandleJSON(report domain.AuditReport) error {
	enc := json.NewEncoder(c.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(adapters.MapAuditReportDomainToApi(report))
}

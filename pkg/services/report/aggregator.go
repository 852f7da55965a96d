package report

import "github.com/de-tools/compose-audit/pkg/models/domain"

// FileResult holds the findings of one audited file.
type FileResult struct {
	Path     string
	Findings []domain.Finding
}

// Aggregate folds per-file results into one report: concatenated findings,
// per-severity tallies and the file count. No filtering happens here; what
// blocks a run is the policy gate's decision alone.
func Aggregate(results []FileResult) domain.AuditReport {
	report := domain.AuditReport{
		SeverityCounts: map[domain.Severity]int{},
		FilesScanned:   len(results),
	}
	for _, s := range domain.Severities {
		report.SeverityCounts[s] = 0
	}

	for _, result := range results {
		for _, finding := range result.Findings {
			report.Findings = append(report.Findings, finding)
			report.SeverityCounts[finding.Severity]++
		}
	}

	return report
}

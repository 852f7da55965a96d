package domain

// AuditReport aggregates the findings of one run. Immutable once built.
type AuditReport struct {
	Findings       []Finding
	SeverityCounts map[Severity]int
	FilesScanned   int
}

func (r AuditReport) TotalFindings() int {
	return len(r.Findings)
}

// FindingsBySeverity returns the findings of one severity, preserving the
// order in which they were reported.
func (r AuditReport) FindingsBySeverity(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

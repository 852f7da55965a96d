package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/de-tools/compose-audit/pkg/models/domain"
	"github.com/de-tools/compose-audit/pkg/services/manifest"
	"github.com/de-tools/compose-audit/pkg/services/report"
	"github.com/de-tools/compose-audit/pkg/services/rules"
	"github.com/rs/zerolog"
)

const defaultWorkers = 4

// Auditor runs the full pipeline over a set of compose files: load and
// normalize each file, evaluate the rule set, aggregate into one report.
type Auditor struct {
	engine  *rules.Engine
	workers int
}

type Options struct {
	Engine  *rules.Engine
	Workers int
}

func NewAuditor(opts Options) *Auditor {
	if opts.Engine == nil {
		opts.Engine = rules.NewEngine(rules.DefaultSettings())
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Auditor{engine: opts.Engine, workers: opts.Workers}
}

// WithWorkers returns an auditor sharing the same engine but running n
// files concurrently. Non-positive n keeps the current setting.
func (a *Auditor) WithWorkers(n int) *Auditor {
	if n <= 0 {
		return a
	}
	return &Auditor{engine: a.engine, workers: n}
}

// Run audits the given files. Files are independent and rules are pure, so
// files are evaluated concurrently; partial results are merged by file path
// afterwards, which keeps the report deterministic regardless of worker
// scheduling. A file that cannot be processed contributes one ERROR finding
// instead of aborting the run.
func (a *Auditor) Run(ctx context.Context, paths []string) domain.AuditReport {
	logger := zerolog.Ctx(ctx)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []report.FileResult
	)

	sem := make(chan struct{}, a.workers)

	for _, path := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := a.auditFile(p)
			logger.Debug().
				Str("file", p).
				Int("findings", len(result.Findings)).
				Msg("audited manifest")

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(path)
	}

	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return report.Aggregate(results)
}

// Evaluate audits a single already-normalized document. The web handler
// uses it for manifests submitted over HTTP.
func (a *Auditor) Evaluate(doc *domain.ManifestDocument) domain.AuditReport {
	return report.Aggregate([]report.FileResult{
		{Path: doc.Path, Findings: a.engine.Evaluate(doc)},
	})
}

// Rules exposes the engine's registry.
func (a *Auditor) Rules() []rules.Info {
	return a.engine.Rules()
}

func (a *Auditor) auditFile(path string) report.FileResult {
	doc, err := manifest.Load(path)
	if err != nil {
		return report.FileResult{
			Path: path,
			Findings: []domain.Finding{{
				Rule:     "file-processing",
				Category: "File Processing",
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("Failed to process %s: %v", path, err),
				File:     path,
			}},
		}
	}

	return report.FileResult{
		Path:     path,
		Findings: a.engine.Evaluate(&doc),
	}
}

package metrics

import "strings"

// SLOResult evaluación de un objetivo de servicio.
type SLOResult struct {
	Name   string  `json:"name"`
	Target float64 `json:"target"`
	Actual float64 `json:"actual"`
	Unit   string  `json:"unit"`
	OK     bool    `json:"ok"`
}

// Objetivos de servicio.
const (
	SLOAuthErrorRate        = "auth_error_rate"
	SLOPostingLatencyP95    = "posting_latency_p95"
	SLOReconciliationFailed = "reconciliation_failure_rate"
)

// EvaluateSLOs calcula los tres SLO sobre el snapshot actual. Sin muestras el objetivo se cumple.
func (r *Registry) EvaluateSLOs() []SLOResult {
	return EvaluateSLOs(r.Snapshot())
}

// EvaluateSLOs evalúa un snapshot ya tomado.
func EvaluateSLOs(s Snapshot) []SLOResult {
	var count, errs int64
	for name, d := range s.Domains {
		if strings.HasPrefix(name, "auth:") {
			count += d.Count
			errs += d.Errors
		}
	}
	authRate := 0.0
	if count > 0 {
		authRate = float64(errs) / float64(count)
	}

	p95 := 0.0
	for _, name := range []string{"gl:post", "ap:post", "ar:post"} {
		if d, ok := s.Domains[name]; ok && d.P95Ms > p95 {
			p95 = d.P95Ms
		}
	}

	reconRate := s.Jobs["reconciliation"].ErrorRate

	return []SLOResult{
		{Name: SLOAuthErrorRate, Target: 0.01, Actual: authRate, Unit: "ratio", OK: authRate <= 0.01},
		{Name: SLOPostingLatencyP95, Target: 2000, Actual: p95, Unit: "ms", OK: p95 <= 2000},
		{Name: SLOReconciliationFailed, Target: 0.05, Actual: reconRate, Unit: "ratio", OK: reconRate <= 0.05},
	}
}

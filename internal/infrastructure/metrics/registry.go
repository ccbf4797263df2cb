// Package metrics agrega métricas RED por dominio en proceso y las refleja en Prometheus.
package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// bucketsMs límites superiores del histograma en milisegundos; el último es +Inf.
var bucketsMs = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2000, 5000, 10000}

type stats struct {
	count   int64
	errors  int64
	buckets []int64 // len(bucketsMs)+1
}

func newStats() *stats {
	return &stats{buckets: make([]int64, len(bucketsMs)+1)}
}

func (s *stats) observe(d time.Duration, failed bool) {
	s.count++
	if failed {
		s.errors++
	}
	ms := float64(d) / float64(time.Millisecond)
	i := sort.SearchFloat64s(bucketsMs, ms)
	s.buckets[i]++
}

// percentile límite superior del bucket que contiene el rango q (0..1).
func (s *stats) percentile(q float64) float64 {
	if s.count == 0 {
		return 0
	}
	rank := int64(q*float64(s.count) + 0.999999)
	if rank < 1 {
		rank = 1
	}
	var acc int64
	for i, n := range s.buckets {
		acc += n
		if acc >= rank {
			if i < len(bucketsMs) {
				return bucketsMs[i]
			}
			return bucketsMs[len(bucketsMs)-1] * 2
		}
	}
	return bucketsMs[len(bucketsMs)-1] * 2
}

func (s *stats) snapshot() DomainSnapshot {
	out := DomainSnapshot{
		Count:  s.count,
		Errors: s.errors,
		P50Ms:  s.percentile(0.50),
		P95Ms:  s.percentile(0.95),
		P99Ms:  s.percentile(0.99),
	}
	if s.count > 0 {
		out.ErrorRate = float64(s.errors) / float64(s.count)
	}
	return out
}

// DomainSnapshot métricas agregadas de un dominio o job.
type DomainSnapshot struct {
	Count     int64   `json:"count"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
}

// Snapshot foto de todas las métricas del proceso.
type Snapshot struct {
	Domains map[string]DomainSnapshot `json:"domains"`
	Jobs    map[string]DomainSnapshot `json:"jobs"`
	TakenAt time.Time                 `json:"taken_at"`
}

// Registry métricas en memoria. Seguro para uso concurrente.
type Registry struct {
	mu      sync.Mutex
	domains map[string]*stats
	jobs    map[string]*stats

	prom        *prometheus.Registry
	reqTotal    *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec
	jobTotal    *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// NewRegistry crea el registro con su propio registro Prometheus (más collectors de Go y proceso).
func NewRegistry() *Registry {
	r := &Registry{
		domains: make(map[string]*stats),
		jobs:    make(map[string]*stats),
		prom:    prometheus.NewRegistry(),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contabilidad",
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por dominio, método y clase de estado.",
		}, []string{"domain", "method", "status_class"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contabilidad",
			Name:      "http_request_duration_seconds",
			Help:      "Latencia HTTP por dominio.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"domain"}),
		jobTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contabilidad",
			Name:      "job_runs_total",
			Help:      "Ejecuciones de jobs por resultado.",
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contabilidad",
			Name:      "job_duration_seconds",
			Help:      "Duración de jobs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
	r.prom.MustRegister(
		r.reqTotal, r.reqDuration, r.jobTotal, r.jobDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Record registra una petición. Cuenta como error un estado 5xx.
func (r *Registry) Record(domain, method string, status int, d time.Duration) {
	failed := status >= 500
	r.mu.Lock()
	s, ok := r.domains[domain]
	if !ok {
		s = newStats()
		r.domains[domain] = s
	}
	s.observe(d, failed)
	r.mu.Unlock()

	r.reqTotal.WithLabelValues(domain, method, statusClass(status)).Inc()
	r.reqDuration.WithLabelValues(domain).Observe(d.Seconds())
}

// RecordJob registra una ejecución de job.
func (r *Registry) RecordJob(name string, d time.Duration, failed bool) {
	r.mu.Lock()
	s, ok := r.jobs[name]
	if !ok {
		s = newStats()
		r.jobs[name] = s
	}
	s.observe(d, failed)
	r.mu.Unlock()

	result := "ok"
	if failed {
		result = "failed"
	}
	r.jobTotal.WithLabelValues(name, result).Inc()
	r.jobDuration.WithLabelValues(name).Observe(d.Seconds())
}

// Snapshot copia consistente de los agregados.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Snapshot{
		Domains: make(map[string]DomainSnapshot, len(r.domains)),
		Jobs:    make(map[string]DomainSnapshot, len(r.jobs)),
		TakenAt: time.Now().UTC(),
	}
	for k, s := range r.domains {
		out.Domains[k] = s.snapshot()
	}
	for k, s := range r.jobs {
		out.Jobs[k] = s.snapshot()
	}
	return out
}

// Handler exposición Prometheus del registro propio.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{Registry: r.prom})
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

var postingModules = map[string]bool{"gl": true, "ap": true, "ar": true}

// Classify dominio de métricas de una petición.
//
//	/auth/login                   -> auth:login
//	POST /api/v1/gl/...           -> gl:post
//	.../reconciliation            -> reconciliation
//	GET /api/v1/ap/payments       -> ap:get
func Classify(method, path string) string {
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) >= 2 && parts[0] == "auth" {
		return "auth:" + parts[1]
	}
	if strings.Contains(path, "reconciliation") {
		return "reconciliation"
	}
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "v1" {
		m := parts[2]
		if method == http.MethodPost && postingModules[m] {
			return m + ":post"
		}
		return m + ":" + strings.ToLower(method)
	}
	return "other"
}

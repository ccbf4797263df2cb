// Package approval evalúa la matriz de aprobaciones que protege acciones privilegiadas.
package approval

import (
	"fmt"
	"path"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Políticas de aprobación.
const (
	PolicySingleStep = "single-step"
	PolicyTwoStep    = "two-step" // el solicitante no puede aprobar su propia acción
)

// Action descriptor textual de la acción a autorizar (p. ej. "ap:payment" por 12.500).
type Action struct {
	Name   string
	Amount decimal.Decimal
}

// String representación legible, p. ej. "AP payment $12,500.00".
func (a Action) String() string {
	return humanName(a.Name) + " " + formatAmount(a.Amount)
}

// Approver usuario que aprobó la acción con sus roles vigentes.
type Approver struct {
	UserID string
	Roles  []string
}

// Rule regla de la matriz. ActionPattern es un glob de path.Match ("gl:*", "ap:payment").
// La regla aplica si el nombre coincide y el monto supera estrictamente MinAmount.
type Rule struct {
	ActionPattern     string
	MinAmount         decimal.Decimal
	RequiredApprovals []string
	Policy            string
}

// String representación legible, p. ej. "AP payment > $10,000.00".
func (r Rule) String() string {
	s := humanName(r.ActionPattern)
	if r.MinAmount.IsPositive() {
		s += " > " + formatAmount(r.MinAmount)
	}
	return s
}

// Matches informa si la regla aplica a la acción.
func (r Rule) Matches(a Action) bool {
	ok, err := path.Match(r.ActionPattern, a.Name)
	if err != nil || !ok {
		return false
	}
	return a.Amount.GreaterThan(r.MinAmount)
}

// ParseRule admite el formato compacto "ap:payment > 10000" en pattern.
func ParseRule(pattern string, minAmount string, roles []string, policy string) (Rule, error) {
	pattern = strings.TrimSpace(pattern)
	if name, threshold, found := strings.Cut(pattern, ">"); found {
		pattern = strings.TrimSpace(name)
		minAmount = strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(threshold))
	}
	if pattern == "" {
		return Rule{}, fmt.Errorf("approval: patrón vacío")
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return Rule{}, fmt.Errorf("approval: patrón %q inválido: %w", pattern, err)
	}
	r := Rule{ActionPattern: pattern, MinAmount: decimal.Zero, Policy: PolicySingleStep}
	if minAmount != "" {
		d, err := decimal.NewFromString(minAmount)
		if err != nil {
			return Rule{}, fmt.Errorf("approval: monto %q inválido: %w", minAmount, err)
		}
		r.MinAmount = d
	}
	switch policy {
	case "", PolicySingleStep:
	case PolicyTwoStep:
		r.Policy = PolicyTwoStep
	default:
		return Rule{}, fmt.Errorf("approval: política %q inválida", policy)
	}
	if len(roles) == 0 {
		return Rule{}, fmt.Errorf("approval: la regla %q no define roles", pattern)
	}
	r.RequiredApprovals = append([]string(nil), roles...)
	return r, nil
}

// Result resultado de Check. OK es true si no faltan roles.
type Result struct {
	OK           bool
	Missing      []string
	Rules        []Rule
	SelfApproval bool // el solicitante figuraba entre los aprobadores de una regla two-step
}

// Matrix conjunto estático de reglas cargado desde configuración.
type Matrix struct {
	rules []Rule
}

// NewMatrix construye la matriz.
func NewMatrix(rules []Rule) *Matrix {
	return &Matrix{rules: append([]Rule(nil), rules...)}
}

// Rules devuelve una copia de las reglas.
func (m *Matrix) Rules() []Rule { return append([]Rule(nil), m.rules...) }

// Check evalúa todas las reglas que aplican a la acción. Los roles requeridos de cada regla
// deben cubrirse con aprobadores distintos; en two-step el solicitante no cuenta.
func (m *Matrix) Check(a Action, submitterID string, approvers []Approver) Result {
	res := Result{OK: true}
	if m == nil {
		return res
	}
	for _, r := range m.rules {
		if !r.Matches(a) {
			continue
		}
		res.Rules = append(res.Rules, r)
		eligible := approvers
		if r.Policy == PolicyTwoStep {
			eligible = eligible[:0:0]
			for _, ap := range approvers {
				if ap.UserID == submitterID {
					res.SelfApproval = true
					continue
				}
				eligible = append(eligible, ap)
			}
		}
		for _, role := range unmatchedRoles(r.RequiredApprovals, dedupe(eligible)) {
			if !contains(res.Missing, role) {
				res.Missing = append(res.Missing, role)
			}
		}
	}
	res.OK = len(res.Missing) == 0
	return res
}

// unmatchedRoles asigna roles a aprobadores distintos (emparejamiento bipartito máximo)
// y devuelve, en orden, los roles sin aprobador.
func unmatchedRoles(roles []string, approvers []Approver) []string {
	owner := make([]int, len(approvers)) // aprobador -> índice de rol + 1
	var try func(role int, seen []bool) bool
	try = func(role int, seen []bool) bool {
		for i, ap := range approvers {
			if seen[i] || !contains(ap.Roles, roles[role]) {
				continue
			}
			seen[i] = true
			if owner[i] == 0 || try(owner[i]-1, seen) {
				owner[i] = role + 1
				return true
			}
		}
		return false
	}
	var missing []string
	for i := range roles {
		if !try(i, make([]bool, len(approvers))) {
			missing = append(missing, roles[i])
		}
	}
	return missing
}

func dedupe(approvers []Approver) []Approver {
	seen := make(map[string]bool, len(approvers))
	out := make([]Approver, 0, len(approvers))
	for _, ap := range approvers {
		if seen[ap.UserID] {
			continue
		}
		seen[ap.UserID] = true
		out = append(out, ap)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// humanName "ap:payment" -> "AP payment".
func humanName(name string) string {
	module, rest, found := strings.Cut(name, ":")
	if !found {
		return name
	}
	return strings.ToUpper(module) + " " + strings.ReplaceAll(rest, "_", " ")
}

var printer = message.NewPrinter(language.English)

// formatAmount "$10,000.00" sin pasar por float.
func formatAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	// IntPart desborda desde 2^63: ahí se agrupa el texto directamente
	if len(intPart) > 18 {
		return sign + "$" + groupThousands(intPart) + "." + frac
	}
	return sign + printer.Sprintf("$%d", decimal.RequireFromString(intPart).IntPart()) + "." + frac
}

func groupThousands(digits string) string {
	var b strings.Builder
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

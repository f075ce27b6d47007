package environment

import (
	"errors"
	"fmt"
	"strings"
)

// deployment environment selected by the user
type Environment string

const (
	QA    Environment = "QA"
	Stage Environment = "STAGE"
	Prod  Environment = "PROD"
)

var ErrUnknownDomain = errors.New("unknown domain")

// domain value for documents that apply to every environment
const General = "general"

// all environments in display order
var All = []Environment{QA, Stage, Prod}

// normalizes user input into an Environment; empty or unknown input falls back to PROD
func Parse(value string) Environment {
	switch Environment(strings.ToUpper(strings.TrimSpace(value))) {
	case QA:
		return QA
	case Stage, "STG":
		return Stage
	default:
		return Prod
	}
}

// reports whether the value names a known environment
func Valid(value string) bool {
	switch Environment(strings.ToUpper(strings.TrimSpace(value))) {
	case QA, Stage, "STG", Prod:
		return true
	default:
		return false
	}
}

// static mapping from environment to its application domain
type Bindings struct {
	domains map[Environment]string
}

// returns bindings for the three environments
func NewBindings(qa, stage, prod string) *Bindings {
	return &Bindings{
		domains: map[Environment]string{
			QA:    qa,
			Stage: stage,
			Prod:  prod,
		},
	}
}

// returns the bindings used when nothing is configured
func DefaultBindings() *Bindings {
	return NewBindings("my.qa.charitableimpact.com", "my.stg.charitableimpact.com", "my.charitableimpact.com")
}

// returns the domain bound to an environment, PROD for anything unknown
func (b *Bindings) Domain(env Environment) string {
	if domain, ok := b.domains[env]; ok {
		return domain
	}

	return b.domains[Prod]
}

// resolves a free-form environment name to its domain
func (b *Bindings) Resolve(value string) string {
	return b.Domain(Parse(value))
}

// returns the PROD domain
func (b *Bindings) Default() string {
	return b.domains[Prod]
}

// reports whether the domain is a bound domain or the general sentinel
func (b *Bindings) Known(domain string) bool {
	if domain == General {
		return true
	}

	for _, d := range b.domains {
		if d == domain {
			return true
		}
	}

	return false
}

// returns the environment a domain is bound to
func (b *Bindings) EnvironmentOf(domain string) (Environment, bool) {
	for _, env := range All {
		if b.domains[env] == domain {
			return env, true
		}
	}

	return "", false
}

// rejects document domains outside the binding table
func (b *Bindings) ValidateDomain(domain string) error {
	if domain == "" || b.Known(domain) {
		return nil
	}

	return fmt.Errorf("%w %q: must be one of %s, %s, %s or %q",
		ErrUnknownDomain, domain, b.domains[QA], b.domains[Stage], b.domains[Prod], General)
}

package security

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	appctx "backoffice/internal/core/context"
)

// PolicyFlags evaluates named policy toggles against the current session.
// Abstraction allows different backends: static in-memory, CEL rules, etc.
type PolicyFlags interface {
	// IsEnabled checks if a policy is enabled for the session in ctx.
	IsEnabled(ctx context.Context, flag string) bool
}

// Policy flag names (constants for type safety)
const (
	FlagVendedorCanCollect = "vendedor_can_collect"
	FlagLiderCanPlan       = "lider_can_generate_plans"
)

// StaticFlags is a fixed in-memory policy provider. Suitable for tests and
// for agencies without custom rules.
type StaticFlags struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewStaticFlags creates a static flag provider.
func NewStaticFlags() *StaticFlags {
	return &StaticFlags{flags: make(map[string]bool)}
}

func (f *StaticFlags) IsEnabled(ctx context.Context, flag string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flags[flag]
}

// SetFlag sets a boolean flag (for testing/admin).
func (f *StaticFlags) SetFlag(flag string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[flag] = enabled
}

// CELPolicy evaluates policy flags as CEL expressions over the session
// variables `role` and `agency_id`. Expressions are compiled once when a
// rule is registered.
type CELPolicy struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
	fallback PolicyFlags
}

// NewCELPolicy creates a CEL-backed policy provider. Flags without a
// registered rule fall through to the fallback provider (may be nil).
func NewCELPolicy(fallback PolicyFlags) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("role", cel.StringType),
		cel.Variable("agency_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &CELPolicy{
		env:      env,
		programs: make(map[string]cel.Program),
		fallback: fallback,
	}, nil
}

// SetRule compiles and registers a CEL expression for a flag.
// The expression must evaluate to a boolean,
// e.g. `role in ["gerente", "administrativo"]`.
func (p *CELPolicy) SetRule(flag, expr string) error {
	ast, iss := p.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return fmt.Errorf("compile policy %q: %w", flag, iss.Err())
	}
	prg, err := p.env.Program(ast)
	if err != nil {
		return fmt.Errorf("build policy program %q: %w", flag, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.programs[flag] = prg
	return nil
}

func (p *CELPolicy) IsEnabled(ctx context.Context, flag string) bool {
	p.mu.RLock()
	prg, ok := p.programs[flag]
	p.mu.RUnlock()

	if !ok {
		if p.fallback != nil {
			return p.fallback.IsEnabled(ctx, flag)
		}
		return false
	}

	user := appctx.GetUser(ctx)
	if user == nil {
		return false
	}

	out, _, err := prg.Eval(map[string]any{
		"role":      user.Role,
		"agency_id": user.AgencyID,
	})
	if err != nil {
		return false
	}
	enabled, ok := out.Value().(bool)
	return ok && enabled
}

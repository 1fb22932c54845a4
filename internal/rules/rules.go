// Package rules evaluates per-route access rules against the verified
// identity after upstream verification succeeds. A rule can require a
// minimum permission level, an expression, or both; a request failing any
// matching rule is forbidden with reason "no_app_permission".
package rules

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/giftwell/edgegate/internal/config"
	"github.com/giftwell/edgegate/internal/core"
)

type compiledRule struct {
	name       string
	pathPrefix string
	minRank    int
	exprSrc    string
	program    *vm.Program
}

type Engine struct {
	rules []compiledRule
}

// Compile validates and compiles the configured access rules.
// Expressions are compiled once at startup so a bad rule fails the boot
// instead of a request.
func Compile(cfgRules []config.AccessRule) (*Engine, error) {
	compiled := make([]compiledRule, 0, len(cfgRules))
	for _, r := range cfgRules {
		cr := compiledRule{
			name:       r.Name,
			pathPrefix: r.PathPrefix,
			exprSrc:    r.Expr,
		}
		if r.MinLevel != "" {
			cr.minRank = core.LevelRank(r.MinLevel)
		}
		if r.Expr != "" {
			program, err := expr.Compile(r.Expr, expr.AsBool(), expr.Env(exprEnv(&core.Identity{}, "", "")))
			if err != nil {
				return nil, fmt.Errorf("compiling expr for rule '%s': %w", r.Name, err)
			}
			cr.program = program
		}
		compiled = append(compiled, cr)
	}
	return &Engine{rules: compiled}, nil
}

// Evaluate checks every rule whose path prefix matches the request.
// It returns the name of the first failing rule, or ok when all pass.
// An expression that errors at runtime fails closed.
func (e *Engine) Evaluate(method, path string, id *core.Identity) (ok bool, failedRule string) {
	for i := range e.rules {
		r := &e.rules[i]
		if !strings.HasPrefix(path, r.pathPrefix) {
			continue
		}

		if r.minRank > 0 && core.LevelRank(id.PermissionLevel) < r.minRank {
			return false, r.name
		}

		if r.program != nil {
			out, err := expr.Run(r.program, exprEnv(id, method, path))
			if err != nil {
				return false, r.name
			}
			if passed, isBool := out.(bool); !isBool || !passed {
				return false, r.name
			}
		}
	}
	return true, ""
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

func exprEnv(id *core.Identity, method, path string) map[string]any {
	brands := id.Brands
	if brands == nil {
		brands = []string{}
	}
	apps := id.Apps
	if apps == nil {
		apps = []string{}
	}
	return map[string]any{
		"user":   id.ID,
		"email":  id.Email,
		"brands": brands,
		"apps":   apps,
		"level":  id.PermissionLevel,
		"method": method,
		"path":   path,
	}
}

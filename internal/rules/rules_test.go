package rules

import (
	"testing"

	"github.com/giftwell/edgegate/internal/config"
	"github.com/giftwell/edgegate/internal/core"
)

func editor() *core.Identity {
	return &core.Identity{
		ID:              "u1",
		Email:           "kay@giftwell.io",
		Brands:          []string{"glow"},
		Apps:            []string{"gifting"},
		PermissionLevel: core.LevelEdit,
	}
}

func TestCompileRejectsBadExpr(t *testing.T) {
	_, err := Compile([]config.AccessRule{
		{Name: "broken", PathPrefix: "/api/", Expr: "level =="},
	})
	if err == nil {
		t.Fatal("expected compile error for malformed expression")
	}
}

func TestCompileRejectsNonBoolExpr(t *testing.T) {
	_, err := Compile([]config.AccessRule{
		{Name: "not-bool", PathPrefix: "/api/", Expr: `"a string"`},
	})
	if err == nil {
		t.Fatal("expected compile error for non-boolean expression")
	}
}

func TestEvaluate(t *testing.T) {
	engine, err := Compile([]config.AccessRule{
		{Name: "exports-need-edit", PathPrefix: "/api/exports/", MinLevel: core.LevelEdit},
		{Name: "billing-needs-admin", PathPrefix: "/api/billing/", MinLevel: core.LevelAdmin},
		{Name: "glow-only", PathPrefix: "/api/brands/glow/", Expr: `"glow" in brands`},
		{Name: "no-deletes", PathPrefix: "/api/campaigns/", Expr: `method != "DELETE"`},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		name     string
		method   string
		path     string
		id       *core.Identity
		wantOK   bool
		wantRule string
	}{
		{
			name:   "No matching rule",
			method: "GET", path: "/api/profile",
			id:     editor(),
			wantOK: true,
		},
		{
			name:   "MinLevel satisfied",
			method: "POST", path: "/api/exports/run",
			id:     editor(),
			wantOK: true,
		},
		{
			name:   "MinLevel not satisfied",
			method: "POST", path: "/api/billing/invoices",
			id:     editor(),
			wantOK: false, wantRule: "billing-needs-admin",
		},
		{
			name:   "Expression passes",
			method: "GET", path: "/api/brands/glow/gifts",
			id:     editor(),
			wantOK: true,
		},
		{
			name:   "Expression fails",
			method: "GET", path: "/api/brands/glow/gifts",
			id:     &core.Identity{ID: "u2", Brands: []string{"lumen"}, PermissionLevel: core.LevelAdmin},
			wantOK: false, wantRule: "glow-only",
		},
		{
			name:   "Method guard",
			method: "DELETE", path: "/api/campaigns/7",
			id:     editor(),
			wantOK: false, wantRule: "no-deletes",
		},
		{
			name:   "Nil brand slice does not panic the expression",
			method: "GET", path: "/api/brands/glow/gifts",
			id:     &core.Identity{ID: "u3", PermissionLevel: core.LevelView},
			wantOK: false, wantRule: "glow-only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, rule := engine.Evaluate(tt.method, tt.path, tt.id)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (rule %q)", ok, tt.wantOK, rule)
			}
			if rule != tt.wantRule {
				t.Errorf("rule = %q, want %q", rule, tt.wantRule)
			}
		})
	}
}

func TestEvaluateFirstFailingRuleWins(t *testing.T) {
	engine, err := Compile([]config.AccessRule{
		{Name: "first", PathPrefix: "/api/", MinLevel: core.LevelAdmin},
		{Name: "second", PathPrefix: "/api/", MinLevel: core.LevelAdmin},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	ok, rule := engine.Evaluate("GET", "/api/x", editor())
	if ok || rule != "first" {
		t.Errorf("got (%v, %q), want first rule to be reported", ok, rule)
	}
}

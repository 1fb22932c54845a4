package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/giftwell/edgegate/internal/core"
)

const (
	// EnvProduction is the environment name that enables the __Host-
	// cookie prefix and hard-disables the dev bypass.
	EnvProduction = "production"

	DefaultSessionCookie = "gw_session"
	DefaultLegacyCookie  = "giftwell_token"
)

type Config struct {
	// App is the application slug sent to the upstream on exchange/verify.
	App string `yaml:"app"`

	// Environment selects cookie naming and gates the dev bypass.
	Environment string `yaml:"environment"`

	Upstream  UpstreamConfig  `yaml:"upstream"`
	Forward   ForwardConfig   `yaml:"forward"`
	Cookies   CookieConfig    `yaml:"cookies"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Routes    RouteConfig     `yaml:"routes"`
	Redirects RedirectConfig  `yaml:"redirects"`
	Bypass    BypassConfig    `yaml:"bypass"`
	Rules     []AccessRule    `yaml:"rules"`
	Audit     AuditConfig     `yaml:"audit"`
	Admin     AdminConfig     `yaml:"admin"`
}

// UpstreamConfig describes the identity provider the gateway depends on.
type UpstreamConfig struct {
	// BaseURL is the identity provider root, e.g. "https://sso.internal".
	BaseURL string `yaml:"base_url"`

	// ServiceToken is the optional service-level bearer sent on code
	// exchange. Leaving it empty sends the exchange unauthenticated.
	ServiceToken string `yaml:"service_token"`

	// Timeout bounds every single verification/exchange attempt.
	Timeout time.Duration `yaml:"timeout"`

	// MaxAttempts is the total number of tries (1 initial + retries).
	MaxAttempts int `yaml:"max_attempts"`

	// RetryBackoff is the linear backoff base; attempt n waits n*base.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// ForwardConfig describes the downstream app the gateway fronts.
type ForwardConfig struct {
	// Target is the URL authenticated requests are proxied to.
	Target string `yaml:"target"`
}

type CookieConfig struct {
	// Name is the base session cookie name. In production the gateway
	// reads and writes the "__Host-" prefixed variant.
	Name string `yaml:"name"`

	// LegacyName is actively cleared whenever a fresh token is set so
	// two cookies can never disagree.
	LegacyName string `yaml:"legacy_name"`

	// MaxAge is the session cookie lifetime.
	MaxAge time.Duration `yaml:"max_age"`
}

// CacheConfig holds the verification cache TTL classes. Failure classes
// are deliberately much shorter than the success class so permission
// changes and outages are rechecked within seconds.
type CacheConfig struct {
	AllowedTTL time.Duration `yaml:"allowed_ttl"`
	DeniedTTL  time.Duration `yaml:"denied_ttl"`
	ErrorTTL   time.Duration `yaml:"error_ttl"`
}

type RateLimitConfig struct {
	// Limit is the number of mutating API calls allowed per window.
	Limit int `yaml:"limit"`

	Window time.Duration `yaml:"window"`
}

type RouteConfig struct {
	// APIPrefix marks routes that get JSON errors instead of redirects.
	APIPrefix string `yaml:"api_prefix"`

	HealthPath string `yaml:"health_path"`
	LogoutPath string `yaml:"logout_path"`

	// LegacySignInPath is the deprecated sign-in page; requests to it
	// are redirected to the upstream re-authentication endpoint.
	LegacySignInPath string `yaml:"legacy_sign_in_path"`

	// AdminPrefix mounts the operational API (separately authenticated).
	AdminPrefix string `yaml:"admin_prefix"`
}

type RedirectConfig struct {
	// Reauth is the upstream re-authentication URL for browser flows.
	Reauth string `yaml:"reauth"`

	AccessDenied    string `yaml:"access_denied"`
	InactiveAccount string `yaml:"inactive_account"`
}

// BypassConfig synthesizes a fixed identity for local development.
// It is only honored when Enabled is set AND the environment is not
// production; both flags must agree for the path to be reachable.
type BypassConfig struct {
	Enabled         bool     `yaml:"enabled"`
	UserID          string   `yaml:"user_id"`
	Email           string   `yaml:"email"`
	FullName        string   `yaml:"full_name"`
	Brands          []string `yaml:"brands"`
	Apps            []string `yaml:"apps"`
	PermissionLevel string   `yaml:"permission_level"`
}

// AccessRule restricts a path prefix to a minimum permission level and/or
// an expression evaluated against the verified identity.
type AccessRule struct {
	// Name is a human-readable identifier for logs/debugging.
	Name string `yaml:"name"`

	// PathPrefix selects the routes this rule applies to.
	PathPrefix string `yaml:"path_prefix"`

	// MinLevel is the minimum permission level ("view", "edit", "admin").
	// Leaving it empty means no level-based restriction.
	MinLevel string `yaml:"min_level"`

	// Expr is an optional expression for more complex matching logic,
	// e.g. `"ops" in apps or level == "admin"`.
	Expr string `yaml:"expr"`
}

type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // e.g., "file", "memory"

	// Options carries sink-specific settings (e.g. file path).
	Options map[string]any `yaml:",inline"`
}

type AdminConfig struct {
	// SigningKey is the HMAC key for admin-surface JWTs. Empty disables
	// the admin mux entirely.
	SigningKey string `yaml:"signing_key"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config with defaults applied, or an error if
// loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvProduction
	}
	if c.Upstream.Timeout <= 0 {
		c.Upstream.Timeout = 5 * time.Second
	}
	if c.Upstream.MaxAttempts <= 0 {
		c.Upstream.MaxAttempts = 3
	}
	if c.Upstream.RetryBackoff <= 0 {
		c.Upstream.RetryBackoff = 250 * time.Millisecond
	}
	if c.Cookies.Name == "" {
		c.Cookies.Name = DefaultSessionCookie
	}
	if c.Cookies.LegacyName == "" {
		c.Cookies.LegacyName = DefaultLegacyCookie
	}
	if c.Cookies.MaxAge <= 0 {
		c.Cookies.MaxAge = 7 * 24 * time.Hour
	}
	if c.Cache.AllowedTTL <= 0 {
		c.Cache.AllowedTTL = 60 * time.Second
	}
	if c.Cache.DeniedTTL <= 0 {
		c.Cache.DeniedTTL = 10 * time.Second
	}
	if c.Cache.ErrorTTL <= 0 {
		c.Cache.ErrorTTL = 5 * time.Second
	}
	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = 120
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Routes.APIPrefix == "" {
		c.Routes.APIPrefix = "/api/"
	}
	if c.Routes.HealthPath == "" {
		c.Routes.HealthPath = "/healthz"
	}
	if c.Routes.LogoutPath == "" {
		c.Routes.LogoutPath = "/logout"
	}
	if c.Routes.LegacySignInPath == "" {
		c.Routes.LegacySignInPath = "/signin"
	}
	if c.Routes.AdminPrefix == "" {
		c.Routes.AdminPrefix = "/edgegate/admin/"
	}
	if c.Bypass.PermissionLevel == "" {
		c.Bypass.PermissionLevel = core.LevelView
	}
}

func (c *Config) Validate() error {
	if c.App == "" {
		return fmt.Errorf("app is required")
	}
	if err := validateURL("upstream.base_url", c.Upstream.BaseURL); err != nil {
		return err
	}
	if err := validateURL("forward.target", c.Forward.Target); err != nil {
		return err
	}
	if err := validateURL("redirects.reauth", c.Redirects.Reauth); err != nil {
		return err
	}
	if err := validateURL("redirects.access_denied", c.Redirects.AccessDenied); err != nil {
		return err
	}
	if err := validateURL("redirects.inactive_account", c.Redirects.InactiveAccount); err != nil {
		return err
	}
	if !strings.HasSuffix(c.Routes.APIPrefix, "/") {
		return fmt.Errorf("routes.api_prefix must end with a slash")
	}
	if !strings.HasSuffix(c.Routes.AdminPrefix, "/") {
		return fmt.Errorf("routes.admin_prefix must end with a slash")
	}
	if c.Cache.DeniedTTL >= c.Cache.AllowedTTL {
		return fmt.Errorf("cache.denied_ttl must be shorter than cache.allowed_ttl")
	}
	if c.Bypass.Enabled {
		if c.IsProduction() {
			return fmt.Errorf("bypass.enabled is not allowed in production")
		}
		if c.Bypass.UserID == "" {
			return fmt.Errorf("bypass.user_id is required when bypass is enabled")
		}
		if !core.ValidLevel(c.Bypass.PermissionLevel) {
			return fmt.Errorf("bypass.permission_level %q is not a valid level", c.Bypass.PermissionLevel)
		}
	}
	for idx, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("rule at index %d has empty name", idx)
		}
		if r.PathPrefix == "" {
			return fmt.Errorf("rule %q has empty path_prefix", r.Name)
		}
		if r.MinLevel != "" && !core.ValidLevel(r.MinLevel) {
			return fmt.Errorf("rule %q has unknown min_level %q", r.Name, r.MinLevel)
		}
		if r.MinLevel == "" && r.Expr == "" {
			return fmt.Errorf("rule %q restricts nothing (set min_level or expr)", r.Name)
		}
	}
	if c.Audit.Enabled && c.Audit.Type == "" {
		return fmt.Errorf("audit.type is required when audit is enabled")
	}
	return nil
}

// IsProduction reports whether the gateway runs in the production
// environment (the default when unset).
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// SessionCookieName returns the cookie name the gateway writes:
// __Host- prefixed in production, plain otherwise.
func (c *Config) SessionCookieName() string {
	if c.IsProduction() {
		return "__Host-" + c.Cookies.Name
	}
	return c.Cookies.Name
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) URL", field)
	}
	return nil
}

package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Tier is the priority class of a backend. Fallback hosts are attempted only
// after every primary attempt is exhausted.
type Tier string

const (
	// TierPrimary hosts are raced first.
	TierPrimary Tier = "primary"
	// TierFallback hosts are raced only when no primary resolves.
	TierFallback Tier = "fallback"
)

// Config represents the full Guardian configuration document. It is loaded
// once per invocation and treated as immutable for the duration of a run.
type Config struct {
	Version  string    `yaml:"version" validate:"required"`
	Name     string    `yaml:"name,omitempty" validate:"omitempty,max=100"`
	Settings Settings  `yaml:"settings,omitempty"`
	Backends []Backend `yaml:"backends,omitempty" validate:"omitempty,dive"`
	LLM      LLMCheck  `yaml:"llm,omitempty"`
	Scripts  Scripts   `yaml:"scripts,omitempty"`
	Policy   Policy    `yaml:"policy,omitempty"`
}

// Settings holds global execution parameters.
type Settings struct {
	ProbeTimeoutMs int    `yaml:"probe_timeout_ms,omitempty" validate:"omitempty,min=1,max=300000"`
	LogLevel       string `yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
}

// Backend describes one inference host. Immutable once loaded; the resolver
// only ever reads it.
type Backend struct {
	Name        string `yaml:"name" validate:"required,backend_name"`
	URL         string `yaml:"url" validate:"required,url"`
	Enabled     bool   `yaml:"enabled,omitempty"`
	Tier        Tier   `yaml:"tier,omitempty" validate:"omitempty,oneof=primary fallback"`
	Description string `yaml:"description,omitempty"`
}

// UnmarshalYAML applies backend defaults: hosts are enabled and primary
// unless the document says otherwise.
func (b *Backend) UnmarshalYAML(value *yaml.Node) error {
	type rawBackend struct {
		Name        string `yaml:"name"`
		URL         string `yaml:"url"`
		Enabled     *bool  `yaml:"enabled"`
		Tier        Tier   `yaml:"tier"`
		Description string `yaml:"description"`
	}

	var raw rawBackend
	if err := value.Decode(&raw); err != nil {
		return err
	}

	b.Name = raw.Name
	b.URL = raw.URL
	b.Description = raw.Description

	if raw.Enabled != nil {
		b.Enabled = *raw.Enabled
	} else {
		b.Enabled = true
	}

	if raw.Tier != "" {
		b.Tier = raw.Tier
	} else {
		b.Tier = TierPrimary
	}

	return nil
}

// LLMCheck configures the semantic review unit.
type LLMCheck struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Model     string `yaml:"model,omitempty"`
	TimeoutMs int    `yaml:"timeout_ms,omitempty" validate:"omitempty,min=1"`
	Rules     string `yaml:"rules,omitempty"`
	Task      string `yaml:"task,omitempty"`
}

// Scripts configures the external command checks.
type Scripts struct {
	Commands       []string          `yaml:"commands,omitempty"`
	WorkDir        string            `yaml:"workdir,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
	TimeoutMs      int               `yaml:"timeout_ms,omitempty" validate:"omitempty,min=1"`
	MaxOutputBytes int               `yaml:"max_output_bytes,omitempty" validate:"omitempty,min=1"`
}

// Policy configures the static rule pass.
type Policy struct {
	Rules []Rule `yaml:"rules,omitempty" validate:"omitempty,dive"`
}

// Rule kinds supported by the policy evaluator.
const (
	RuleMaxFileSize      = "max_file_size"
	RuleForbiddenPattern = "forbidden_pattern"
	RuleRequiredPattern  = "required_pattern"
	RulePathRestriction  = "path_restriction"
)

// Rule is one static policy rule. Pattern semantics depend on Type: a regexp
// for the pattern kinds, a doublestar glob for path_restriction, and unused
// for max_file_size.
type Rule struct {
	ID       string `yaml:"id" validate:"required,rule_id"`
	Type     string `yaml:"type" validate:"required,oneof=max_file_size forbidden_pattern required_pattern path_restriction"`
	Pattern  string `yaml:"pattern,omitempty"`
	MaxBytes int    `yaml:"max_bytes,omitempty" validate:"omitempty,min=1"`
	Severity string `yaml:"severity,omitempty" validate:"omitempty,oneof=low medium high"`
	Message  string `yaml:"message,omitempty"`
}

// UnmarshalYAML applies rule defaults: findings are medium severity unless
// the rule says otherwise.
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	type rawRule Rule
	var raw rawRule
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*r = Rule(raw)
	if r.Severity == "" {
		r.Severity = "medium"
	}
	return nil
}

const (
	defaultProbeTimeout  = 2500 * time.Millisecond
	defaultScriptTimeout = 60 * time.Second
	defaultLLMTimeout    = 180 * time.Second
	defaultOutputBytes   = 64 * 1024
)

// ProbeTimeout returns the per-probe budget.
func (c *Config) ProbeTimeout() time.Duration {
	if c != nil && c.Settings.ProbeTimeoutMs > 0 {
		return time.Duration(c.Settings.ProbeTimeoutMs) * time.Millisecond
	}
	return defaultProbeTimeout
}

// ScriptTimeout returns the per-command budget.
func (c *Config) ScriptTimeout() time.Duration {
	if c != nil && c.Scripts.TimeoutMs > 0 {
		return time.Duration(c.Scripts.TimeoutMs) * time.Millisecond
	}
	return defaultScriptTimeout
}

// LLMTimeout returns the completion-call budget.
func (c *Config) LLMTimeout() time.Duration {
	if c != nil && c.LLM.TimeoutMs > 0 {
		return time.Duration(c.LLM.TimeoutMs) * time.Millisecond
	}
	return defaultLLMTimeout
}

// MaxOutputBytes returns the per-stream capture cap for script checks.
func (c *Config) MaxOutputBytes() int {
	if c != nil && c.Scripts.MaxOutputBytes > 0 {
		return c.Scripts.MaxOutputBytes
	}
	return defaultOutputBytes
}

// EnabledBackends returns enabled hosts, primaries before fallbacks,
// preserving configured order within each tier.
func (c *Config) EnabledBackends() []Backend {
	backends := c.PrimaryBackends()
	return append(backends, c.FallbackBackends()...)
}

// PrimaryBackends returns enabled primary-tier hosts in configured order.
func (c *Config) PrimaryBackends() []Backend {
	return c.backendsInTier(TierPrimary)
}

// FallbackBackends returns enabled fallback-tier hosts in configured order.
func (c *Config) FallbackBackends() []Backend {
	return c.backendsInTier(TierFallback)
}

func (c *Config) backendsInTier(tier Tier) []Backend {
	if c == nil {
		return nil
	}
	var out []Backend
	for _, b := range c.Backends {
		if b.Enabled && b.Tier == tier {
			out = append(out, b)
		}
	}
	return out
}

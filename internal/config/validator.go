package config

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	backendNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)
	ruleIDPattern      = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("backend_name", func(fl validator.FieldLevel) bool {
			return backendNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("rule_id", func(fl validator.FieldLevel) bool {
			return ruleIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration. Malformed configuration is the supplier's failure domain;
// the engine assumes a validated document.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return guardianerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	names := make(map[string]struct{}, len(cfg.Backends))
	for i, b := range cfg.Backends {
		if _, exists := names[b.Name]; exists {
			return guardianerrors.NewValidationError(
				fmt.Sprintf("backends[%d].name", i),
				fmt.Sprintf("duplicate backend name %q", b.Name), nil)
		}
		names[b.Name] = struct{}{}
	}

	ruleIDs := make(map[string]struct{}, len(cfg.Policy.Rules))
	for i, r := range cfg.Policy.Rules {
		if _, exists := ruleIDs[r.ID]; exists {
			return guardianerrors.NewValidationError(
				fmt.Sprintf("policy.rules[%d].id", i),
				fmt.Sprintf("duplicate rule id %q", r.ID), nil)
		}
		ruleIDs[r.ID] = struct{}{}

		if err := validateRuleShape(r, i); err != nil {
			return err
		}
	}

	if cfg.LLM.Enabled && len(cfg.EnabledBackends()) == 0 {
		return guardianerrors.NewValidationError("llm.enabled",
			"llm check requires at least one enabled backend", nil)
	}

	return nil
}

// validateRuleShape checks the per-kind field requirements. Pattern
// compilability is deliberately not checked here: a pattern that fails to
// compile is surfaced by the evaluator as a PolicyRuleError finding so the
// remaining rules still run.
func validateRuleShape(r Rule, index int) error {
	field := func(name string) string {
		return fmt.Sprintf("policy.rules[%d].%s", index, name)
	}

	switch r.Type {
	case RuleMaxFileSize:
		if r.MaxBytes <= 0 {
			return guardianerrors.NewValidationError(field("max_bytes"),
				"max_file_size rules require max_bytes", nil)
		}
	case RuleForbiddenPattern, RuleRequiredPattern, RulePathRestriction:
		if r.Pattern == "" {
			return guardianerrors.NewValidationError(field("pattern"),
				fmt.Sprintf("%s rules require a pattern", r.Type), nil)
		}
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return guardianerrors.NewValidationError(fe.Namespace(),
			fmt.Sprintf("failed %q constraint", fe.Tag()), err)
	}

	return guardianerrors.NewValidationError("", err.Error(), err)
}

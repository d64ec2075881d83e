// Package policy implements the static rule pass. Evaluation is a pure
// function of the change payload and the declared rules: no I/O, no network,
// and a stable, declaration-ordered violation list.
package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/softwarewrighter/guardian/internal/config"
	"github.com/softwarewrighter/guardian/internal/model"
	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

// File is one touched file in the change under review.
type File struct {
	Path string
	Size int64
}

// Payload is the change text plus the touched file set.
type Payload struct {
	Diff  string
	Files []File
}

// Evaluate matches every rule against the payload. Rules are evaluated in
// declaration order and each contributes zero or more violations. A rule
// with a malformed pattern yields one PolicyRuleError and is skipped;
// evaluation of the remaining rules continues.
func Evaluate(payload Payload, rules []config.Rule) ([]model.PolicyViolation, []error) {
	var violations []model.PolicyViolation
	var ruleErrs []error

	for _, rule := range rules {
		found, err := evaluateRule(payload, rule)
		if err != nil {
			ruleErrs = append(ruleErrs, err)
			continue
		}
		violations = append(violations, found...)
	}

	return violations, ruleErrs
}

func evaluateRule(payload Payload, rule config.Rule) ([]model.PolicyViolation, error) {
	switch rule.Type {
	case config.RuleMaxFileSize:
		return evaluateMaxFileSize(payload, rule), nil
	case config.RuleForbiddenPattern:
		return evaluateForbiddenPattern(payload, rule)
	case config.RuleRequiredPattern:
		return evaluateRequiredPattern(payload, rule)
	case config.RulePathRestriction:
		return evaluatePathRestriction(payload, rule)
	default:
		return nil, guardianerrors.NewPolicyRuleError(rule.ID,
			fmt.Sprintf("unknown rule type %q", rule.Type), nil)
	}
}

func evaluateMaxFileSize(payload Payload, rule config.Rule) []model.PolicyViolation {
	var out []model.PolicyViolation
	for _, f := range payload.Files {
		if f.Size > int64(rule.MaxBytes) {
			out = append(out, model.PolicyViolation{
				RuleID:   rule.ID,
				Severity: model.Severity(rule.Severity),
				File:     f.Path,
				Message:  violationMessage(rule, fmt.Sprintf("%s is %d bytes, limit is %d", f.Path, f.Size, rule.MaxBytes)),
			})
		}
	}
	return out
}

func evaluateForbiddenPattern(payload Payload, rule config.Rule) ([]model.PolicyViolation, error) {
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return nil, guardianerrors.NewPolicyRuleError(rule.ID,
			fmt.Sprintf("invalid pattern %q", rule.Pattern), err)
	}

	var out []model.PolicyViolation
	currentFile := ""
	for i, line := range strings.Split(payload.Diff, "\n") {
		if file, ok := diffFileHeader(line); ok {
			currentFile = file
			continue
		}
		if re.MatchString(line) {
			out = append(out, model.PolicyViolation{
				RuleID:   rule.ID,
				Severity: model.Severity(rule.Severity),
				File:     currentFile,
				Line:     i + 1,
				Message:  violationMessage(rule, fmt.Sprintf("forbidden pattern %q matched", rule.Pattern)),
			})
		}
	}
	return out, nil
}

func evaluateRequiredPattern(payload Payload, rule config.Rule) ([]model.PolicyViolation, error) {
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return nil, guardianerrors.NewPolicyRuleError(rule.ID,
			fmt.Sprintf("invalid pattern %q", rule.Pattern), err)
	}

	if re.MatchString(payload.Diff) {
		return nil, nil
	}

	return []model.PolicyViolation{{
		RuleID:   rule.ID,
		Severity: model.Severity(rule.Severity),
		Message:  violationMessage(rule, fmt.Sprintf("required pattern %q not found", rule.Pattern)),
	}}, nil
}

func evaluatePathRestriction(payload Payload, rule config.Rule) ([]model.PolicyViolation, error) {
	if !doublestar.ValidatePattern(rule.Pattern) {
		return nil, guardianerrors.NewPolicyRuleError(rule.ID,
			fmt.Sprintf("invalid glob %q", rule.Pattern), nil)
	}

	var out []model.PolicyViolation
	for _, f := range payload.Files {
		matched, err := doublestar.Match(rule.Pattern, f.Path)
		if err != nil {
			return nil, guardianerrors.NewPolicyRuleError(rule.ID,
				fmt.Sprintf("invalid glob %q", rule.Pattern), err)
		}
		if matched {
			out = append(out, model.PolicyViolation{
				RuleID:   rule.ID,
				Severity: model.Severity(rule.Severity),
				File:     f.Path,
				Message:  violationMessage(rule, fmt.Sprintf("path %s matches restricted pattern %q", f.Path, rule.Pattern)),
			})
		}
	}
	return out, nil
}

func violationMessage(rule config.Rule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

// diffFileHeader extracts the target path from a unified diff "+++ b/..."
// header line.
func diffFileHeader(line string) (string, bool) {
	if rest, ok := strings.CutPrefix(line, "+++ b/"); ok {
		return rest, true
	}
	if rest, ok := strings.CutPrefix(line, "+++ "); ok && rest != "/dev/null" {
		return rest, true
	}
	return "", false
}

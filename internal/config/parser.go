package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseConfig loads a configuration file from disk, validates it, and
// returns the resulting model.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, guardianerrors.NewParseError(path, 0, err)
	}

	cfg, err := ParseBytes(data)
	if err != nil {
		var parseErr *guardianerrors.ParseError
		if ok := asParseError(err, &parseErr); ok {
			parseErr.Path = path
			return nil, parseErr
		}
		return nil, err
	}

	return cfg, nil
}

// ParseBytes decodes and validates a configuration document held in memory.
func ParseBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, guardianerrors.NewParseError("", extractLine(err), err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func asParseError(err error, target **guardianerrors.ParseError) bool {
	pe, ok := err.(*guardianerrors.ParseError)
	if !ok {
		return false
	}
	*target = pe
	return true
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}

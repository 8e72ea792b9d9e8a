// Package settings resolves per-document configuration: when to lint
// (strategy) and what to pass to the linter.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"alexls/internal/lint"
)

// Strategy controls when automatic linting runs for a document.
type Strategy string

const (
	StrategyOnType Strategy = "onType"
	StrategyOnSave Strategy = "onSave"
	// StrategyUser means diagnostics are managed externally; validate never lints.
	StrategyUser Strategy = "user"
)

// Settings is the resolved configuration for one document.
type Settings struct {
	Strategy Strategy
	Linter   lint.Options
}

// Config is the user-facing configuration shape shared by client settings,
// .alexlsrc.toml and .alexlsrc.yaml. Zero fields mean "not set".
type Config struct {
	Strategy          string   `json:"strategy,omitempty" toml:"strategy" yaml:"strategy" validate:"omitempty,oneof=onType onSave user"`
	NoBinary          *bool    `json:"noBinary,omitempty" toml:"noBinary" yaml:"noBinary"`
	ProfanitySureness string   `json:"profanitySureness,omitempty" toml:"profanitySureness" yaml:"profanitySureness" validate:"omitempty,oneof=unlikely maybe likely"`
	Allow             []string `json:"allow,omitempty" toml:"allow" yaml:"allow" validate:"dive,required"`
	Deny              []string `json:"deny,omitempty" toml:"deny" yaml:"deny" validate:"dive,required"`
}

var validate = validator.New()

var sureness = map[string]int{
	"unlikely": 0,
	"maybe":    1,
	"likely":   2,
}

// Overlay returns base with every field set in over replacing base's value.
func Overlay(base, over Config) Config {
	out := base
	if over.Strategy != "" {
		out.Strategy = over.Strategy
	}
	if over.NoBinary != nil {
		v := *over.NoBinary
		out.NoBinary = &v
	}
	if over.ProfanitySureness != "" {
		out.ProfanitySureness = over.ProfanitySureness
	}
	if over.Allow != nil {
		out.Allow = append([]string(nil), over.Allow...)
	}
	if over.Deny != nil {
		out.Deny = append([]string(nil), over.Deny...)
	}
	return out
}

// Validate checks field values. Allow and deny together are rejected here,
// before the linter would reject them on every run.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s: invalid value %v (%s)", lowerFirst(fe.Field()), fe.Value(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(parts, "; "))
		}
		return err
	}
	if len(c.Allow) > 0 && len(c.Deny) > 0 {
		return errors.New("invalid settings: allow and deny are mutually exclusive")
	}
	return nil
}

// Resolve validates c and converts it to Settings. An empty strategy
// resolves to onType.
func (c Config) Resolve() (Settings, error) {
	if err := c.Validate(); err != nil {
		return Settings{}, err
	}
	s := Settings{Strategy: Strategy(c.Strategy)}
	if s.Strategy == "" {
		s.Strategy = StrategyOnType
	}
	if c.NoBinary != nil {
		s.Linter.NoBinary = *c.NoBinary
	}
	s.Linter.ProfanitySureness = sureness[c.ProfanitySureness]
	s.Linter.Allow = append([]string(nil), c.Allow...)
	s.Linter.Deny = append([]string(nil), c.Deny...)
	return s, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

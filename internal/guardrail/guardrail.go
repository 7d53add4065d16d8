// Package guardrail validates generated answers before they reach the user.
package guardrail

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/models"
)

// WarningBanner is prepended to answers that fail validation. The original
// answer always follows, so the user loses nothing.
const WarningBanner = "Warning: Response may not meet quality standards.\n\n"

// Check inspects an answer and returns an error describing the violation.
type Check func(answer string) error

// pageCitationRe matches inline page references like "page 3".
var pageCitationRe = regexp.MustCompile(`(?i)page\s+\d+`)

// hedgingPhrases are formulations that signal the model is guessing rather
// than reporting document content.
var hedgingPhrases = []string{
	"i think",
	"i believe",
	"probably",
	"it seems",
	"as far as i know",
	"i'm not sure",
	"i am not sure",
}

// ContainsCitation fails answers that carry neither a Sources section nor an
// inline page reference.
func ContainsCitation(answer string) error {
	if strings.Contains(answer, models.SourcesMarker) {
		return nil
	}
	if pageCitationRe.MatchString(answer) {
		return nil
	}
	return fmt.Errorf("no citation found")
}

// NoHedging fails answers containing hedging phrases.
func NoHedging(answer string) error {
	lower := strings.ToLower(answer)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("hedging phrase %q", phrase)
		}
	}
	return nil
}

// Validator runs answer checks. It degrades, never blocks: a failing or
// panicking check prefixes the answer with WarningBanner and passes the
// original text through.
type Validator struct {
	checks []Check
	logger *zap.Logger
}

// New returns a validator with the default checks.
func New(logger *zap.Logger) *Validator {
	return NewWithChecks(logger, ContainsCitation, NoHedging)
}

// NewWithChecks returns a validator running exactly the given checks.
func NewWithChecks(logger *zap.Logger, checks ...Check) *Validator {
	return &Validator{checks: checks, logger: logger}
}

// Validate returns the answer unchanged when every check passes, and the
// warning-prefixed answer otherwise.
func (v *Validator) Validate(answer string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Warn("validation panicked", zap.Any("panic", r))
			result = WarningBanner + answer
		}
	}()
	for _, check := range v.checks {
		if err := check(answer); err != nil {
			v.logger.Debug("validation failed", zap.Error(err))
			return WarningBanner + answer
		}
	}
	return answer
}

package scenario

import (
	"errors"
	"fmt"
)

// Problem categorizes a scenario table integrity violation.
type Problem string

const (
	ProblemEmptyTrigger     Problem = "empty_trigger"
	ProblemDuplicateTrigger Problem = "duplicate_trigger"
	ProblemMissingReply     Problem = "missing_reply"
	ProblemTooManyPushes    Problem = "too_many_pushes"
	ProblemCountMismatch    Problem = "count_mismatch"  // declared button count differs from options
	ProblemOptionLimit      Problem = "option_limit"    // too few or too many options/columns
	ProblemInvalidLabel     Problem = "invalid_label"   // empty or over the platform limit
	ProblemDanglingTarget   Problem = "dangling_target" // a button sends text no scenario handles
	ProblemMalformed        Problem = "malformed"       // unknown kind, missing field, bad URL
	ProblemUnknownScenario  Problem = "unknown_scenario"
)

// ConfigurationError reports a scenario table that must not be served.
type ConfigurationError struct {
	Problem Problem
	Trigger string
	Detail  string
}

func (e *ConfigurationError) Error() string {
	if e.Trigger == "" {
		return fmt.Sprintf("scenario table: %s: %s", e.Problem, e.Detail)
	}
	return fmt.Sprintf("scenario %q: %s: %s", e.Trigger, e.Problem, e.Detail)
}

func configErr(p Problem, trigger, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Problem: p, Trigger: trigger, Detail: fmt.Sprintf(format, args...)}
}

// Problems flattens err (possibly an errors.Join of many) into the
// configuration errors it carries.
func Problems(err error) []*ConfigurationError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*ConfigurationError
		for _, e := range joined.Unwrap() {
			out = append(out, Problems(e)...)
		}
		return out
	}
	if ce, ok := err.(*ConfigurationError); ok {
		return []*ConfigurationError{ce}
	}
	return Problems(errors.Unwrap(err))
}

package guardrail

import (
	"fmt"
	"strings"
)

// Mode selects how the evaluator treats over-length scripts.
type Mode string

const (
	// ModeFail rejects over-length scripts without modifying them.
	ModeFail Mode = "fail"
	// ModeTrim truncates over-length scripts to the word threshold.
	ModeTrim Mode = "trim"
)

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeFail:
		return ModeFail, true
	case ModeTrim:
		return ModeTrim, true
	}
	return "", false
}

// Action records what the evaluator (or the pipeline's availability check)
// did to an item.
type Action string

const (
	ActionNone    Action = "none"
	ActionTrimmed Action = "trimmed"
	ActionBlocked Action = "blocked"
)

// DefaultMaxWords is the script length threshold applied when the policy does
// not override it.
const DefaultMaxWords = 70

// Policy configures one evaluation. Mode is caller-supplied per call, so a
// single evaluator serves strict and lenient callers concurrently.
type Policy struct {
	MaxWords int
	Mode     Mode
}

// Violation names the rule a script broke and the observed detail.
type Violation struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// Verdict is the result of evaluating one script against policy. It is
// computed fresh per call and never cached.
type Verdict struct {
	Passed     bool
	Violations []Violation
	Action     Action
	Script     string
	WordCount  int
	Reason     string
}

// Evaluate checks a script against the length policy. It is a pure function
// of its inputs: no network, no file access, no shared state.
func Evaluate(script string, policy Policy) Verdict {
	maxWords := policy.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	mode := policy.Mode
	if mode != ModeTrim {
		mode = ModeFail
	}

	words := strings.Fields(script)
	count := len(words)
	if count <= maxWords {
		return Verdict{
			Passed:    true,
			Action:    ActionNone,
			Script:    script,
			WordCount: count,
			Reason:    "within_limit",
		}
	}

	detail := fmt.Sprintf("too_long: %d words (max %d)", count, maxWords)
	if mode == ModeFail {
		return Verdict{
			Passed:     false,
			Violations: []Violation{{Rule: "length", Detail: detail}},
			Action:     ActionNone,
			Script:     script,
			WordCount:  count,
			Reason:     detail,
		}
	}

	trimmed := strings.Join(words[:maxWords], " ")
	return Verdict{
		Passed:     true,
		Violations: []Violation{{Rule: "length", Detail: detail}},
		Action:     ActionTrimmed,
		Script:     trimmed,
		WordCount:  maxWords,
		Reason:     fmt.Sprintf("trimmed_to_%d", maxWords),
	}
}

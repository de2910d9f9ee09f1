// Package vocab corrects recognized lecture text using a user-supplied
// substitution file, one "wrong => right" pair per line. Lecture capture
// mishears domain terms constantly; this is the cheap fix for it.
package vocab

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// Engine applies deterministic substitutions to transcript segments.
type Engine struct {
	rules []rule
}

// Load compiles substitutions from path. An empty path or a missing file
// yields an engine that passes text through unchanged.
func Load(path string) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return &Engine{}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{}, nil
		}
		return nil, fmt.Errorf("failed to read vocabulary file %q: %w", path, err)
	}

	rules, err := parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %q: %w", path, err)
	}
	return &Engine{rules: rules}, nil
}

// Apply rewrites text using every rule once, in file order.
func (e *Engine) Apply(text string) string {
	for _, r := range e.rules {
		text = r.re.ReplaceAllString(text, r.replacement)
	}
	return text
}

func parse(contents string) ([]rule, error) {
	lines := strings.Split(contents, "\n")
	rules := make([]rule, 0, len(lines))

	for index, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=>", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"wrong => right\"", index+1)
		}

		from := strings.TrimSpace(parts[0])
		to := strings.TrimSpace(parts[1])
		if from == "" {
			return nil, fmt.Errorf("line %d: substitution source cannot be empty", index+1)
		}

		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		rules = append(rules, rule{re: re, replacement: to})
	}

	return rules, nil
}

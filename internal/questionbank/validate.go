package questionbank

import (
	"fmt"
	"strings"

	"github.com/stemsi/exstem-quiz/internal/model"
)

// Issue is one problem found in the bank.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports every issue found in a bank.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("question bank validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, format string, args ...any) {
	c.issues = append(c.issues, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// Normalize trims surrounding whitespace and checks every record: question,
// answer and explanation present, at least two unique non-empty options, and
// the answer among them.
func Normalize(questions []model.Question) ([]model.Question, error) {
	c := &issueCollector{}
	if len(questions) == 0 {
		c.add("questions", "must include at least one entry")
		return nil, c.result()
	}

	out := make([]model.Question, len(questions))
	for i, q := range questions {
		prefix := fmt.Sprintf("questions[%d]", i)

		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			c.add(prefix+".question", "is required")
		}

		q.Explanation = strings.TrimSpace(q.Explanation)
		if q.Explanation == "" {
			c.add(prefix+".explanation", "is required")
		}

		opts := make([]string, len(q.Options))
		seen := make(map[string]struct{}, len(q.Options))
		for j, opt := range q.Options {
			opt = strings.TrimSpace(opt)
			opts[j] = opt
			if opt == "" {
				c.add(fmt.Sprintf("%s.options[%d]", prefix, j), "is required")
				continue
			}
			if _, dup := seen[opt]; dup {
				c.add(fmt.Sprintf("%s.options[%d]", prefix, j), "duplicate option %q", opt)
				continue
			}
			seen[opt] = struct{}{}
		}
		q.Options = opts
		if len(opts) < 2 {
			c.add(prefix+".options", "must include at least two entries")
		}

		q.Answer = strings.TrimSpace(q.Answer)
		if q.Answer == "" {
			c.add(prefix+".answer", "is required")
		} else if _, ok := seen[q.Answer]; !ok {
			c.add(prefix+".answer", "%q is not one of the options", q.Answer)
		}

		out[i] = q
	}

	if err := c.result(); err != nil {
		return nil, err
	}
	return out, nil
}

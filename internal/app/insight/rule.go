// Package insight turns Metrics into a short, ranked list of observations.
//
// A catalog is an ordered list of rules. Each rule pairs a predicate over the
// evaluation context with a renderer for its text. Every rule is checked on
// every call; the engine then ranks and caps the results.
package insight

import (
	"time"

	"github.com/productive-me/momentum/internal/domain"
)

// Context is everything a rule may look at.
type Context struct {
	Metrics domain.Metrics
	Tasks   []domain.Task
	Now     time.Time // already in the user's timezone
}

// Content is the presentation half of an insight.
type Content struct {
	Title       string
	Description string
	Action      string
	Value       *float64
	Trend       domain.Trend
}

// Rule is one catalog entry.
type Rule struct {
	ID       string
	Type     domain.InsightType
	Priority domain.Priority
	When     func(Context) bool
	Render   func(Context) Content
}

// fire evaluates r against c, returning nil when the rule does not apply.
func (r Rule) fire(c Context) *domain.Insight {
	if r.When == nil || !r.When(c) {
		return nil
	}
	var body Content
	if r.Render != nil {
		body = r.Render(c)
	}
	return &domain.Insight{
		ID:          r.ID,
		Type:        r.Type,
		Title:       body.Title,
		Description: body.Description,
		Action:      body.Action,
		Priority:    domain.ParsePriority(string(r.Priority)),
		Value:       body.Value,
		Trend:       body.Trend,
	}
}

func value(v float64) *float64 {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return &v
}

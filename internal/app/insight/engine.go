package insight

import (
	"sort"
	"time"

	"github.com/productive-me/momentum/internal/domain"
)

// DefaultLimit caps the number of insights returned.
const DefaultLimit = 6

// Engine evaluates a catalog and ranks the results.
type Engine struct {
	Catalog []Rule
	Limit   int // <= 0 means DefaultLimit
}

// New returns an engine over catalog. A nil catalog means DefaultCatalog().
func New(catalog []Rule, limit int) Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return Engine{Catalog: catalog, Limit: limit}
}

// Evaluate runs every rule, orders the hits by priority (high first) keeping
// catalog order among equals, and returns at most Limit of them. A snapshot
// with no tasks and no habits yields an empty list.
func (e Engine) Evaluate(m domain.Metrics, tasks []domain.Task, now time.Time) []domain.Insight {
	out := make([]domain.Insight, 0, len(e.Catalog))
	if len(tasks) == 0 && m.TotalTasks == 0 && len(m.Habits) == 0 {
		return out
	}

	c := Context{Metrics: m, Tasks: tasks, Now: now}
	for _, r := range e.Catalog {
		if in := r.fire(c); in != nil {
			out = append(out, *in)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})

	if limit := e.limit(); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (e Engine) limit() int {
	if e.Limit <= 0 {
		return DefaultLimit
	}
	return e.Limit
}

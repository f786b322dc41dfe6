package commentary

import (
	"math/rand"
	"regexp"

	"github.com/GianTheRios/league-of-molts/internal/domain"
)

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Renderer produces fast-path commentary lines from templates. The random
// source is injected so callers control template choice; seed it for
// deterministic tests.
type Renderer struct {
	rng *rand.Rand
}

// NewRenderer creates a renderer drawing template choices from rng.
func NewRenderer(rng *rand.Rand) *Renderer {
	return &Renderer{rng: rng}
}

// Render picks a template for the event type uniformly at random and
// substitutes the event's payload fields. Substitution is all-or-nothing:
// if the template references a field the payload lacks, the raw template
// text is returned with placeholders intact. Event types without templates
// return ok=false.
func (r *Renderer) Render(event domain.GameEvent) (string, bool) {
	options := templates[event.Type]
	if len(options) == 0 {
		return "", false
	}

	tmpl := options[r.rng.Intn(len(options))]
	return substitute(tmpl, event.Fields()), true
}

func substitute(tmpl string, fields map[string]string) string {
	refs := placeholderPattern.FindAllStringSubmatch(tmpl, -1)
	for _, ref := range refs {
		if _, ok := fields[ref[1]]; !ok {
			return tmpl
		}
	}

	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		return fields[match[1:len(match)-1]]
	})
}

package commentary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GianTheRios/league-of-molts/internal/domain"
)

const promptHeader = `You are an esports commentator for a MOBA game called League of Molts.
Generate one exciting, energetic commentary line for this event.
Keep it brief (under 20 words) and hype.

Event: %s
Details: %s

Commentary:`

// BuildPrompt prepares the enhancement request for an event. Payload
// details are rendered as sorted key=value pairs so prompts are stable.
func BuildPrompt(event domain.GameEvent) string {
	return fmt.Sprintf(promptHeader, event.Type, formatDetails(event.Fields()))
}

func formatDetails(fields map[string]string) string {
	if len(fields) == 0 {
		return "none"
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	return strings.Join(pairs, ", ")
}

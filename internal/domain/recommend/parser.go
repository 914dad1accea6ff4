package recommend

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Activities groups activity names by category, parsed out of a model reply.
type Activities struct {
	Restaurants []string `json:"restaurants"`
	Concerts    []string `json:"concerts"`
	Sports      []string `json:"sports"`
}

// IsEmpty reports whether no category produced anything.
func (a Activities) IsEmpty() bool {
	return len(a.Restaurants) == 0 && len(a.Concerts) == 0 && len(a.Sports) == 0
}

var (
	headerRestaurants = regexp.MustCompile(`(?i)^restaurants:?$`)
	headerConcerts    = regexp.MustCompile(`(?i)^concerts:?$`)
	headerSports      = regexp.MustCompile(`(?i)^sports:?$`)
	numberedItem      = regexp.MustCompile(`^[0-9]+[.)]\s*`)
)

// ParseActivities turns raw model output into per-category activity lists.
// Valid JSON (fenced or bare) is the primary path; otherwise a line-based
// heuristic scans for category headers followed by numbered items.
func ParseActivities(raw string) Activities {
	if acts, ok := parseActivitiesJSON(raw); ok {
		return acts
	}

	var acts Activities
	var current *[]string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case headerRestaurants.MatchString(line):
			current = &acts.Restaurants
		case headerConcerts.MatchString(line):
			current = &acts.Concerts
		case headerSports.MatchString(line):
			current = &acts.Sports
		case numberedItem.MatchString(line) && current != nil:
			*current = append(*current, numberedItem.ReplaceAllString(line, ""))
		}
	}
	return acts
}

func parseActivitiesJSON(raw string) (Activities, bool) {
	var wire struct {
		Restaurants []string `json:"restaurants"`
		Concerts    []string `json:"concerts"`
		Sports      []string `json:"sports"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return Activities{}, false
	}
	return Activities{
		Restaurants: cleanList(wire.Restaurants),
		Concerts:    cleanList(wire.Concerts),
		Sports:      cleanList(wire.Sports),
	}, true
}

// extractNarrative pulls the free-text recommendation out of a model reply.
// Schema-constrained replies carry it under "recommendation"; plain text is
// used verbatim.
func extractNarrative(raw string) string {
	var wire struct {
		Recommendation string `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err == nil {
		if text := strings.TrimSpace(wire.Recommendation); text != "" {
			return text
		}
	}
	return strings.TrimSpace(raw)
}

func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.Trim(clean, "`")
	return strings.TrimSpace(strings.TrimPrefix(clean, "json"))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := strings.TrimSpace(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

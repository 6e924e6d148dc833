package reporting

import "strings"

// Placeholder stands in for any missing display value.
const Placeholder = "N/A"

// DisplayName returns the first non-blank candidate, or Placeholder.
func DisplayName(candidates ...string) string {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return Placeholder
}

func derefName(candidates ...*string) string {
	values := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			values = append(values, *c)
		}
	}
	return DisplayName(values...)
}

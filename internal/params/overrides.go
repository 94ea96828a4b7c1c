package params

import (
	"fmt"
	"strings"
)

// ParseOverrides parses raw KEY=VALUE entries into a partial mapping.
// Each entry must split into exactly two non-empty parts on the first
// '='; malformed entries are skipped with a diagnostic. Entries are
// applied in the order given, so a later duplicate key wins.
func ParseOverrides(raw []string) (map[string]*string, []Diagnostic) {
	out := make(map[string]*string, len(raw))
	var diags []Diagnostic

	for _, entry := range raw {
		key, value, found := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !found || key == "" || value == "" {
			diags = append(diags, Diagnostic{
				Stage:   StageOverride,
				Summary: "malformed override ignored",
				Detail:  fmt.Sprintf("%q is not in KEY=VALUE form", entry),
			})
			continue
		}
		v := value
		out[key] = &v
	}
	return out, diags
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/resolvr-io/resolvr/internal/params"
)

// formatJSON renders the flat mapping as one JSON object; explicit
// nulls stay null so consumers can tell "not discovered" from a key
// that was never attempted.
func formatJSON(set *params.Set) (string, error) {
	data, err := json.MarshalIndent(set.Values(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal parameters: %w", err)
	}
	return string(data), nil
}

// formatText renders sorted KEY=VALUE lines for shell consumption.
// Null values render as an empty right-hand side.
func formatText(set *params.Set) string {
	var b strings.Builder
	for _, key := range set.Keys() {
		value, _ := set.Get(key)
		if value == nil {
			fmt.Fprintf(&b, "%s=\n", key)
		} else {
			fmt.Fprintf(&b, "%s=%s\n", key, *value)
		}
	}
	return b.String()
}

// formatPretty renders a categorized human view grouped by the stage
// that produced each value, with missing-value markers and a summary.
func formatPretty(set *params.Set, diags []params.Diagnostic) string {
	categories := []struct {
		title string
		stage params.Stage
	}{
		{"Base Parameters", params.StageBase},
		{"Infrastructure Discovery", params.StageDiscovery},
		{"Build Information", params.StageGenerated},
		{"Core Stack Outputs", params.StageCoreStack},
		{"Parent Stack Outputs", params.StageParentStack},
		{"Overrides", params.StageOverride},
	}

	var b strings.Builder
	rule := strings.Repeat("=", 72)
	fmt.Fprintf(&b, "%s\nRESOLVED PARAMETERS\n%s\n", rule, rule)

	missing := 0
	for _, cat := range categories {
		var lines []string
		for _, key := range set.Keys() {
			source, _ := set.Source(key)
			if source != cat.stage {
				continue
			}
			value, _ := set.Get(key)
			if value == nil {
				lines = append(lines, fmt.Sprintf("  %-35s = <MISSING>", key))
				missing++
			} else {
				lines = append(lines, fmt.Sprintf("  %-35s = %s", key, *value))
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n%s\n", cat.title, strings.Repeat("-", 40))
		for _, line := range lines {
			fmt.Fprintln(&b, line)
		}
	}

	if len(diags) > 0 {
		fmt.Fprintf(&b, "\nDiagnostics:\n%s\n", strings.Repeat("-", 40))
		for _, d := range diags {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}

	fmt.Fprintf(&b, "\n%s\nTotal Parameters: %d\nMissing Parameters: %d\n%s\n",
		rule, set.Len(), missing, rule)
	return b.String()
}

package params

import "fmt"

// Diagnostic records a non-fatal, degraded-but-continuing condition
// observed during resolution. Diagnostics are collected and returned
// alongside the result, never thrown.
type Diagnostic struct {
	Stage   Stage
	Summary string
	Detail  string
}

func (d Diagnostic) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("[%s] %s", d.Stage, d.Summary)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Stage, d.Summary, d.Detail)
}

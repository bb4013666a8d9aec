package model

// Check names reported by the dependency probes.
const (
	CheckDatabase = "database"
	CheckCache    = "cache"
	CheckAssets   = "assets"
)

// DependencyCheckResult is the outcome of probing one external dependency.
// Results are built fresh for every request and never persisted.
type DependencyCheckResult struct {
	Name        string
	Label       string
	Description string // Markdown, authored by the probe.
	Required    bool
	Status      bool
	Error       string // Untrusted text (driver messages); escaped on render.
	Note        string // Markdown hint shown under a failing check.
	ShowForm    bool   // True when the setup form can fix this failure.
}

// SkippedCheck returns a result for a dependency the application does not
// need. It is always passing.
func SkippedCheck(name, label, description string) DependencyCheckResult {
	return DependencyCheckResult{
		Name:        name,
		Label:       label,
		Description: description,
		Required:    false,
		Status:      true,
	}
}

// PassedCheck returns a passing result for a required dependency.
func PassedCheck(name, label, description string) DependencyCheckResult {
	return DependencyCheckResult{
		Name:        name,
		Label:       label,
		Description: description,
		Required:    true,
		Status:      true,
	}
}

// FailedCheck returns a failing result. A failing check is always required.
func FailedCheck(name, label, description, errMsg string) DependencyCheckResult {
	return DependencyCheckResult{
		Name:        name,
		Label:       label,
		Description: description,
		Required:    true,
		Status:      false,
		Error:       errMsg,
	}
}

// Blocking reports whether this result should keep the application gated.
func (r DependencyCheckResult) Blocking() bool {
	return r.Required && !r.Status
}

// AllPassing reports whether no result in the set is blocking.
func AllPassing(results []DependencyCheckResult) bool {
	for _, r := range results {
		if r.Blocking() {
			return false
		}
	}
	return true
}

// ReplaceCheck returns a copy of results with the entry named like
// replacement swapped out. Results without a match are returned unchanged.
func ReplaceCheck(results []DependencyCheckResult, replacement DependencyCheckResult) []DependencyCheckResult {
	out := make([]DependencyCheckResult, len(results))
	copy(out, results)
	for i := range out {
		if out[i].Name == replacement.Name {
			out[i] = replacement
		}
	}
	return out
}

package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Dashboard healthy
	SymbolFail     = "✗" // Last refresh failed
	SymbolPending  = "○" // Not yet refreshed
	SymbolProgress = "◐" // Refresh in flight
	SymbolStopped  = "⊘" // Instance stopped
)

// StateSymbol maps an instance state name to its indicator.
func StateSymbol(state string) string {
	switch state {
	case "running":
		return SymbolSuccess
	case "refreshing":
		return SymbolProgress
	case "error":
		return SymbolFail
	case "stopped":
		return SymbolStopped
	default:
		return SymbolPending
	}
}

package app

import "strings"

// Traced SQL is collapsed to one line and capped; the multi-statement
// repository queries (merge repointing in particular) run long.
const maxTracedQueryLength = 512

func formatDBQueryForTrace(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}

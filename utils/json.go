package utils

import "strings"

const (
	compactMaxMapItems   = 8
	compactMaxListItems  = 5
	compactMaxStringLen  = 120
	compactTruncatedTail = "..."
)

// CompactValue trims a decoded JSON-ish value (maps, slices, strings) to a
// bounded preview so activity log entries stay small. Map iteration order is
// not stable, so previews are best-effort, not canonical.
func CompactValue(value any) any {
	return compactValue(value, compactMaxMapItems, compactMaxListItems)
}

func compactValue(value any, maxMapItems, maxListItems int) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, minInt(len(v), maxMapItems))
		count := 0
		for key, item := range v {
			if count >= maxMapItems {
				break
			}
			out[key] = compactValue(item, maxMapItems, maxListItems)
			count++
		}
		return out
	case []any:
		limit := minInt(len(v), maxListItems)
		out := make([]any, 0, limit)
		for _, item := range v[:limit] {
			out = append(out, compactValue(item, maxMapItems, maxListItems))
		}
		return out
	case []string:
		limit := minInt(len(v), maxListItems)
		out := make([]any, 0, limit)
		for _, item := range v[:limit] {
			out = append(out, compactValue(item, maxMapItems, maxListItems))
		}
		return out
	case string:
		normalized := strings.Join(strings.Fields(v), " ")
		if len(normalized) <= compactMaxStringLen {
			return normalized
		}
		return normalized[:compactMaxStringLen-len(compactTruncatedTail)] + compactTruncatedTail
	default:
		return value
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

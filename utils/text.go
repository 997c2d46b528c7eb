package utils

import "strings"

// SplitList splits a comma-separated field into trimmed, non-empty values
// Example: "cats, funny ,, gifts" -> ["cats", "funny", "gifts"]
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

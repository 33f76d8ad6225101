package logmodel

import "strings"

// ResolveColumn matches name against header case-insensitively and
// returns the header's canonical spelling. Tools use this so callers
// (including the planner) may name fields loosely while every access
// still resolves to an actual column.
func ResolveColumn(header []string, name string) (string, bool) {
	for _, h := range header {
		if strings.EqualFold(h, name) {
			return h, true
		}
	}
	return "", false
}

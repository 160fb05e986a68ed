package catalog

import "strings"

// NormalizeTags trims whitespace and drops empty entries, preserving order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// ParseTagString splits a comma-separated tag list into normalized tags.
func ParseTagString(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

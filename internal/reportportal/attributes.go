package reportportal

import (
	"sort"
	"strings"
)

const (
	maxTagLength = 127

	DefaultAttributeValue = "NA"
	DefaultAttributeLen   = 128
	tagEmptyValue         = "N/A"
)

// ParseLaunchTags keeps the KEY:VALUE entries of tags. Keys and values are
// clipped to 127 characters, an empty value becomes N/A and a repeated key
// keeps its last value.
func ParseLaunchTags(tags []string) map[string]string {
	attrs := map[string]string{}
	for _, tag := range tags {
		parts := strings.SplitN(tag, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := clip(parts[0], maxTagLength), clip(parts[1], maxTagLength)
		if val == "" {
			val = tagEmptyValue
		}
		attrs[key] = val
	}
	return attrs
}

// Attributes returns attrs as a list sorted by key.
func Attributes(attrs map[string]string) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for k, v := range attrs {
		out = append(out, Attribute{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// FormatAttributes turns "KEY:VALUE" strings into attributes. Newlines,
// literal or escaped, become spaces. Entries without a colon get
// valueDefault. Keys longer than keyLen and values longer than valueLen are
// cut and suffixed with "...".
func FormatAttributes(list []string, valueDefault string, keyLen, valueLen int) []Attribute {
	out := make([]Attribute, 0, len(list))
	for _, attr := range list {
		attr = strings.ReplaceAll(attr, "\n", " ")
		attr = strings.ReplaceAll(attr, `\n`, " ")
		attr = strings.TrimSpace(attr)
		if !strings.Contains(attr, ":") {
			attr += ":"
		}
		parts := strings.SplitN(attr, ":", 2)
		key, value := parts[0], parts[1]
		if value == "" {
			value = valueDefault
		}
		out = append(out, Attribute{
			Key:   ellipsis(key, keyLen),
			Value: ellipsis(value, valueLen),
		})
	}
	return out
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func ellipsis(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	n := max - 4
	if n < 0 {
		n = 0
	}
	return string(r[:n]) + "..."
}

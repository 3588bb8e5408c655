package extract

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// BuildSelector assembles a page selector from a kind/value pair. The name
// argument is the attribute name for the data and attr kinds. Canvas and
// iframe values accept "first", an ordinal, or an element id. Anything the
// builder cannot express comes back as "" with a log line, never an error:
// callers treat an empty selector as "element not found".
func BuildSelector(kind, value, name string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))

	if value == "" {
		slog.Warn("selector value empty", "kind", kind, "name", name)
		return ""
	}

	switch kind {
	case "id":
		return "#" + value
	case "class":
		return "." + value
	case "name":
		return fmt.Sprintf("[name='%s']", value)
	case "xpath", "css", "tag":
		return value
	case "data":
		attr := name
		if attr == "" {
			attr = "data-id"
		}
		return fmt.Sprintf("[%s='%s']", attr, value)
	case "attr":
		if name == "" {
			slog.Warn("attr selector needs an attribute name")
			return ""
		}
		return fmt.Sprintf("[%s='%s']", name, value)
	case "text":
		return fmt.Sprintf("//*[contains(text(), '%s')]", value)
	case "canvas":
		return embeddedSelector("canvas", value)
	case "iframe":
		return embeddedSelector("iframe", value)
	default:
		slog.Warn("unsupported selector kind", "kind", kind)
		return ""
	}
}

// embeddedSelector resolves the first | N | id forms shared by canvas and
// iframe lookups.
func embeddedSelector(tag, value string) string {
	if strings.EqualFold(value, "first") {
		return tag
	}
	if allDigits(value) {
		n, _ := strconv.Atoi(value)
		return fmt.Sprintf("%s:nth-of-type(%d)", tag, n)
	}
	if strings.HasPrefix(value, "#") || strings.HasPrefix(value, ".") {
		return value
	}
	return tag + "#" + value
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

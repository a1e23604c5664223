package util

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed version.txt
var embeddedVersion string

// ErrMsg carries an error through the Bubble Tea update loop.
type ErrMsg error

func GetVersion() string {
	return strings.TrimSpace(embeddedVersion)
}

func GetNameAndVersion() string {
	return fmt.Sprintf("%s / %s", Name, GetVersion())
}

// NormalizeInput flattens multi-line input into a single line.
func NormalizeInput(text string) string {
	return strings.TrimSpace(strings.Replace(text, "\n", " ", -1))
}

func DateTimeFormat() string {
	return "2006-01-02 15:04:05"
}

func PrettyPrint(i interface{}) string {
	s, _ := json.MarshalIndent(i, "", " ")
	return string(s)
}

// TruncateString shortens s to max runes, appending an ellipsis.
func TruncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

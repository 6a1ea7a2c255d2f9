package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxUserNameLength is the maximum login name length in runes.
const MaxUserNameLength = 64

// NormalizeUserName trims the login name and checks it is usable as a
// wardrobe key.
func NormalizeUserName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "name required"}
	}
	if utf8.RuneCountInString(name) > MaxUserNameLength {
		return "", &ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxUserNameLength)}
	}
	return name, nil
}

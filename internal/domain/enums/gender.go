package enums

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Gender string

const (
	GenderUnknown Gender = ""
	GenderMan     Gender = "man"
	GenderFemale  Gender = "female"
)

// genderLabels holds every lower-cased label the bot stored historically, canonical value first.
var genderLabels = map[Gender][]string{
	GenderMan:    {"man", "male", "мужской", "мужчина", "парень"},
	GenderFemale: {"female", "woman", "женский", "женщина", "девушка"},
}

// ParseGender accepts the canonical values plus the historical labels in any case.
func ParseGender(raw string) Gender {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return GenderUnknown
	}
	for g, labels := range genderLabels {
		for _, l := range labels {
			if l == label {
				return g
			}
		}
	}
	return GenderUnknown
}

func (g Gender) Opposite() Gender {
	switch g {
	case GenderMan:
		return GenderFemale
	case GenderFemale:
		return GenderMan
	default:
		return GenderUnknown
	}
}

func (g Gender) Known() bool {
	return g == GenderMan || g == GenderFemale
}

// Aliases lists every stored spelling that decodes to g, canonical value first.
// Each label appears lower-cased and capitalized, the two forms stored documents use.
func (g Gender) Aliases() []string {
	labels := genderLabels[g]
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels)*2)
	for _, l := range labels {
		out = append(out, l, capitalize(l))
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

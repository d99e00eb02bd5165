package ai

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

const (
	aboutLimit   = 200
	answersLimit = 150
)

// SummaryLine renders one candidate as `id=<id> | <name>, <age> | <city> | about: ... | answers: ...`.
func SummaryLine(p model.Profile) string {
	var b strings.Builder
	b.WriteString("id=")
	b.WriteString(strconv.FormatInt(p.TelegramID, 10))
	b.WriteString(" | ")
	b.WriteString(orDash(p.Name))
	b.WriteString(", ")
	if p.Age > 0 {
		b.WriteString(strconv.Itoa(p.Age))
	} else {
		b.WriteString("?")
	}
	b.WriteString(" | ")
	b.WriteString(orDash(p.City))
	b.WriteString(" | about: ")
	b.WriteString(orDash(truncateRunes(oneLine(p.About), aboutLimit)))
	b.WriteString(" | answers: ")
	b.WriteString(orDash(truncateRunes(answersText(p.ProfileAnswers), answersLimit)))
	return b.String()
}

func answersText(answers map[string]string) string {
	if len(answers) == 0 {
		return ""
	}
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := oneLine(answers[k]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "; ")
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

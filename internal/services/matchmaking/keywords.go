package matchmaking

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

// visualStems are lower-case word stems describing appearance. A request containing any
// of them goes straight to the vision stage.
var visualStems = []string{
	"внешн", "фото", "фигур", "ростом",
	"рыж", "блонд", "брюнет", "шатен", "волос", "кудр", "лыс",
	"пышн", "полная", "полную", "полненьк", "худая", "худую", "худой", "худеньк",
	"стройн", "спортивн", "подтянут", "накачан", "толст", "в теле",
	"высок", "низк", "миниатюрн",
	"глаз",
	"грудь", "грудаст", "попк", "ножк", "ноги",
	"красив", "симпатичн", "милая", "милую", "хорошеньк",
	"тату", "пирсинг", "борода", "бородат", "усы", "очки", "очкар",
}

func hasVisualKeywords(message string) bool {
	text := strings.ToLower(message)
	for _, stem := range visualStems {
		if strings.Contains(text, stem) {
			return true
		}
	}
	return false
}

const minKeywordRunes = 3

// queryWords splits a message into lower-case words of at least minKeywordRunes runes.
func queryWords(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minKeywordRunes {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// keywordMatches returns up to limit profiles whose about or name contains any query word, in pool order.
func keywordMatches(pool []model.Profile, message string, limit int) []model.Profile {
	words := queryWords(message)
	if len(words) == 0 || limit <= 0 {
		return nil
	}

	out := make([]model.Profile, 0, limit)
	for _, p := range pool {
		haystack := strings.ToLower(p.About + " " + p.Name)
		for _, w := range words {
			if strings.Contains(haystack, w) {
				out = append(out, p)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

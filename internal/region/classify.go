package region

import (
	"slices"
	"strings"
	"unicode"

	"github.com/tani-io/tani/internal/model"
)

// keywordLevels lists the level keywords in precedence order. A text carrying
// keywords of several levels classifies to the first one listed.
var keywordLevels = []struct {
	level    model.Level
	keywords []string
}{
	{model.LevelDistrict, []string{"kecamatan", "kec", "desa", "kelurahan"}},
	{model.LevelRegency, []string{"kabupaten", "kab"}},
	{model.LevelCity, []string{"kota"}},
	{model.LevelProvince, []string{"provinsi", "prov"}},
	{model.LevelNation, []string{"nasional", "indonesia", "semua", "seluruh"}},
}

var nationWords = map[string]bool{
	"nasional": true, "indonesia": true, "semua": true, "seluruh": true,
}

// normalize lowercases the text, drops surrounding punctuation from each
// word and collapses whitespace.
func normalize(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '-' && r != '\''
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// classify finds the level keyword in normalized text and returns the level
// with the remaining name. The name is the text after the keyword, or the
// text before it when nothing follows. LevelNotFound with the full text means
// no keyword; LevelNotFound with an empty name means a bare keyword.
func classify(norm string) (model.Level, string) {
	tokens := strings.Fields(norm)
	for _, kl := range keywordLevels {
		for i, tok := range tokens {
			if !slices.Contains(kl.keywords, tok) {
				continue
			}
			if kl.level == model.LevelNation {
				return model.LevelNation, model.NationName
			}
			name := strings.Join(tokens[i+1:], " ")
			if name == "" {
				name = strings.Join(tokens[:i], " ")
			}
			switch {
			case name == "":
				return model.LevelNotFound, ""
			case isNationPhrase(name):
				return model.LevelNation, model.NationName
			}
			return kl.level, name
		}
	}
	return model.LevelNotFound, norm
}

// isNationPhrase reports whether a stripped name only names the whole
// country, as in "seluruh provinsi".
func isNationPhrase(name string) bool {
	for _, t := range strings.Fields(name) {
		if !nationWords[t] {
			return false
		}
	}
	return true
}

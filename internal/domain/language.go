package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Language is a target language code of the localization workflow
type Language string

const (
	LangDE Language = "de"
	LangES Language = "es"
	LangPT Language = "pt"
	LangNL Language = "nl"
	LangFR Language = "fr"
	LangIT Language = "it"
	LangDA Language = "da"
	LangEL Language = "el"
	LangPL Language = "pl"
	LangNO Language = "no"
	LangSV Language = "sv"
)

// ProofreadingLanguages is the fixed set tracked on every proofreading batch
var ProofreadingLanguages = []Language{LangDE, LangES, LangPT, LangNL, LangFR, LangIT}

// DraftLanguages is the set machine drafts are generated for
var DraftLanguages = []Language{
	LangDE, LangES, LangPT, LangNL, LangFR, LangIT,
	LangDA, LangEL, LangPL, LangNO, LangSV,
}

var languageLabels = map[Language]string{
	LangDE: "German",
	LangES: "Spanish",
	LangPT: "Portuguese",
	LangNL: "Dutch",
	LangFR: "French",
	LangIT: "Italian",
	LangDA: "Danish",
	LangEL: "Greek",
	LangPL: "Polish",
	LangNO: "Norwegian",
	LangSV: "Swedish",
}

var languageFlags = map[Language]string{
	LangDE: "🇩🇪",
	LangES: "🇪🇸",
	LangPT: "🇵🇹",
	LangNL: "🇳🇱",
	LangFR: "🇫🇷",
	LangIT: "🇮🇹",
	LangDA: "🇩🇰",
	LangEL: "🇬🇷",
	LangPL: "🇵🇱",
	LangNO: "🇳🇴",
	LangSV: "🇸🇪",
}

// DefaultTeamMentions maps proofreading languages to the chat handle of their team
var DefaultTeamMentions = map[Language]string{
	LangDE: "@germany-translation-team",
	LangES: "@spain-translation-team",
	LangPT: "@portugal-translation-team",
	LangNL: "@netherlands-translation-team",
	LangFR: "@france-translation-team",
	LangIT: "@italy-translation-team",
}

// Norwegian Bokmål is filed under the macrolanguage code.
var languageAliases = map[string]Language{
	"nb": LangNO,
}

// Code returns the upper-case code used in messages
func (l Language) Code() string {
	return strings.ToUpper(string(l))
}

// Label returns the English name of the language
func (l Language) Label() (string, bool) {
	label, ok := languageLabels[l]
	return label, ok
}

// Flag returns the flag emoji of the language
func (l Language) Flag() (string, bool) {
	flag, ok := languageFlags[l]
	return flag, ok
}

// IsProofread reports whether the language is tracked on proofreading batches
func (l Language) IsProofread() bool {
	for _, lang := range ProofreadingLanguages {
		if lang == l {
			return true
		}
	}
	return false
}

// ParseLanguage normalizes a language code or BCP 47 tag ("DE", "de-DE")
// into one of the known draft languages.
func ParseLanguage(s string) (Language, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	if _, ok := languageLabels[Language(code)]; ok {
		return Language(code), nil
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
	base, _ := tag.Base()
	code = base.String()
	if alias, ok := languageAliases[code]; ok {
		return alias, nil
	}
	if _, ok := languageLabels[Language(code)]; ok {
		return Language(code), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

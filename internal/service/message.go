package service

import (
	"fmt"
	"net/url"
	"strings"

	"keydesk/internal/domain"
)

// EditorLink builds deep links into the translation editor (POEditor)
type EditorLink struct {
	BaseURL   string
	ProjectID string
}

// URL returns the editor link for a translation key
func (l EditorLink) URL(key string) string {
	q := url.Values{}
	q.Set("id", l.ProjectID)
	q.Set("key", key)
	return l.BaseURL + "?" + q.Encode()
}

// ComposeBatchMessage builds the proofreading request posted for a batch
func ComposeBatchMessage(keys []domain.KeyRequest, link EditorLink) string {
	var b strings.Builder
	b.WriteString("👋 Hi translators,\n\n")
	b.WriteString("Could you please take a look at the translations and adjust the texts if needed?\n")
	b.WriteString("Thank you for your support and have a nice day! 🙏\n\n")
	b.WriteString("📋 **Translation Keys:**\n")

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("▪️ `%s` [POEditor Link](%s)", k.Key, link.URL(k.Key)))
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

// ReminderMentions returns team handles for the pending languages.
// Languages without a handle are left out.
func ReminderMentions(r domain.ProofreadingRequest, mentions map[domain.Language]string) []string {
	var out []string
	for _, lang := range r.PendingLanguages() {
		if mention, ok := mentions[lang]; ok && mention != "" {
			out = append(out, mention)
		}
	}
	return out
}

// ComposeReminder builds the reminder for the languages still pending on r
func ComposeReminder(r domain.ProofreadingRequest, mentions map[domain.Language]string) string {
	greeting := "translators"
	if handles := ReminderMentions(r, mentions); len(handles) > 0 {
		greeting = strings.Join(handles, ", ")
	}

	pending := r.PendingLanguages()
	codes := make([]string, 0, len(pending))
	for _, lang := range pending {
		codes = append(codes, lang.Code())
	}

	keys := make([]string, 0, len(r.Keys))
	for _, k := range r.Keys {
		keys = append(keys, fmt.Sprintf("▪️ `%s`", k))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👋 Hi %s,\n\n", greeting)
	b.WriteString("Could you take a look at the translation progress? We're still waiting for updates on these translation keys:\n\n")
	b.WriteString("📋 **Translation Keys:**\n")
	b.WriteString(strings.Join(keys, "\n"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🌍 **Pending Languages:** %s\n\n", strings.Join(codes, ", "))
	b.WriteString("Thank you for your support! 🙏")

	return b.String()
}

// FormatCompletion renders the per-language flags of a batch, e.g. "🇩🇪 ✅ 🇪🇸 ⏳"
func FormatCompletion(r domain.ProofreadingRequest) string {
	parts := make([]string, 0, len(domain.ProofreadingLanguages))
	for _, lang := range domain.ProofreadingLanguages {
		flag, ok := lang.Flag()
		if !ok {
			flag = lang.Code()
		}
		mark := "⏳"
		if r.Completion[lang] {
			mark = "✅"
		}
		parts = append(parts, flag+" "+mark)
	}
	return strings.Join(parts, "  ")
}

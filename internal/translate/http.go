package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"keydesk/internal/domain"

	"github.com/go-resty/resty/v2"
)

// HTTP calls a translation service over JSON:
//
//	POST <base>/translate {"sourceText": "...", "languages": ["de", ...]}
//	200 {"translations": {"de": "...", ...}}
type HTTP struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

// NewHTTP creates a client for the translation service at baseURL
func NewHTTP(baseURL, apiKey string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    resty.New().SetTimeout(timeout),
	}
}

type translateRequest struct {
	SourceText string   `json:"sourceText"`
	Languages  []string `json:"languages"`
}

type translateResponse struct {
	Translations map[string]string `json:"translations"`
}

// Generate requests drafts for every draft language.
// Unknown language codes in the answer are ignored.
func (c *HTTP) Generate(ctx context.Context, sourceText string) (domain.Draft, error) {
	langs := make([]string, 0, len(domain.DraftLanguages))
	for _, lang := range domain.DraftLanguages {
		langs = append(langs, string(lang))
	}

	var resp translateResponse
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(translateRequest{SourceText: sourceText, Languages: langs}).
		SetResult(&resp)
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}

	r, err := req.Post(c.baseURL + "/translate")
	if err != nil {
		return nil, fmt.Errorf("translation service: %w", err)
	}
	if r.IsError() {
		return nil, fmt.Errorf("translation service: %s; body: %s", r.Status(), r.String())
	}

	draft := make(domain.Draft, len(resp.Translations))
	for code, text := range resp.Translations {
		lang, err := domain.ParseLanguage(code)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			draft[lang] = text
		}
	}
	return draft, nil
}

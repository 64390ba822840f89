// Package analysis asks a language model for a second opinion on a listing.
package analysis

import (
	"strings"

	apperrors "sjsage522/dealscout/pkg/errors"
)

// Provider names a chat completion vendor
type Provider string

const (
	ProviderDeepSeek  Provider = "deepseek"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// Endpoint is where and with which model a provider is called
type Endpoint struct {
	URL   string
	Model string
}

var endpoints = map[Provider]Endpoint{
	ProviderDeepSeek: {URL: "https://api.deepseek.com/v1/chat/completions", Model: "deepseek-chat"},
	ProviderOpenAI:   {URL: "https://api.openai.com/v1/chat/completions", Model: "gpt-4o-mini"},
}

const (
	msgMissingKey      = "API Key ayarlanmamış. Lütfen ayarlardan DeepSeek API Key girin."
	msgUseDeepSeek     = "Şu anda DeepSeek kullanıyoruz. Ayarlardan DeepSeek seçili olduğundan emin olun."
	msgUnknownProvider = "bilinmeyen sağlayıcı: "
)

// Settings are read-only to the rest of the program
type Settings struct {
	Provider    Provider
	APIKey      string
	AutoAnalyze bool
}

// Resolve picks the endpoint for the configured provider
func (s Settings) Resolve() (Endpoint, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return Endpoint{}, apperrors.NewValidation("analysis", msgMissingKey)
	}

	p := Provider(strings.ToLower(strings.TrimSpace(string(s.Provider))))
	if p == "" {
		p = ProviderDeepSeek
	}
	switch p {
	case ProviderAnthropic, ProviderGoogle:
		return Endpoint{}, apperrors.NewConfiguration(msgUseDeepSeek, nil)
	}

	ep, ok := endpoints[p]
	if !ok {
		return Endpoint{}, apperrors.NewConfiguration(msgUnknownProvider+string(p), nil)
	}
	return ep, nil
}

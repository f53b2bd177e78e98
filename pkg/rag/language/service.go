package language

import (
	"context"
	"strings"

	"support-chatbot-be/pkg/llm"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultLanguage is what every failure path resolves to: a wrong guess of
// English still produces a readable answer, whereas a propagated error kills
// the whole turn.
const DefaultLanguage = "English"

// cacheKeyLen bounds the memoization key. Two long texts sharing their first
// 100 characters collide; accepted, they are near-certainly the same language.
const cacheKeyLen = 100

// Service detects languages and translates questions to English. Results are
// memoized for the process lifetime.
type Service struct {
	provider llm.LLMProvider
	cache    *gocache.Cache
}

func NewService(provider llm.LLMProvider) *Service {
	return &Service{
		provider: provider,
		cache:    gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}
}

// Detect returns the language name of the text ("Spanish", "English", ...).
// Any failure yields DefaultLanguage, never an error.
func (s *Service) Detect(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return DefaultLanguage
	}

	key := "detect:" + cacheKey(text)
	if cached, found := s.cache.Get(key); found {
		return cached.(string)
	}

	prompt := "Detect the language of the following text. Respond with only the language name in English (e.g., \"Spanish\", \"French\", \"English\"). No additional commentary.\n\nText: " + text
	answer, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		return DefaultLanguage
	}

	language := strings.TrimSpace(strings.Trim(answer, `"`))
	if language == "" {
		return DefaultLanguage
	}

	s.cache.Set(key, language, gocache.NoExpiration)
	return language
}

// Translate renders the text in English. On failure the original text comes
// back so the pipeline keeps moving.
func (s *Service) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	key := "translate:" + cacheKey(text)
	if cached, found := s.cache.Get(key); found {
		return cached.(string)
	}

	prompt := "Translate the following text to English. If it is already English, return it unchanged. Respond with only the translation, no additional commentary.\n\nText: " + text
	answer, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		return text
	}

	translated := strings.TrimSpace(answer)
	if translated == "" {
		return text
	}

	s.cache.Set(key, translated, gocache.NoExpiration)
	return translated
}

func cacheKey(text string) string {
	runes := []rune(text)
	if len(runes) > cacheKeyLen {
		runes = runes[:cacheKeyLen]
	}
	return string(runes)
}

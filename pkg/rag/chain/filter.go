package chain

import (
	"strings"

	"support-chatbot-be/pkg/rag/language"
	"support-chatbot-be/pkg/rag/retriever"
)

// Source types that only make sense for one side of the language split.
// English answers drop localized material; non-English answers drop
// English-only plain text and raw user input.
var (
	nonEnglishOnlyTypes = map[string]bool{"other": true, "vbs": true}
	englishOnlyTypes    = map[string]bool{"txt": true, "user_input": true}
)

// FilterSourcesForLanguage drops retrieved sources whose document type does
// not belong in the answer language. Documents without a type survive.
func FilterSourcesForLanguage(docs []retriever.ScoredDocument, detectedLanguage string) []retriever.ScoredDocument {
	isEnglish := strings.EqualFold(strings.TrimSpace(detectedLanguage), language.DefaultLanguage)

	filtered := make([]retriever.ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		docType, _ := doc.Document.Metadata["type"].(string)
		if docType == "" {
			filtered = append(filtered, doc)
			continue
		}
		if isEnglish && nonEnglishOnlyTypes[docType] {
			continue
		}
		if !isEnglish && englishOnlyTypes[docType] {
			continue
		}
		filtered = append(filtered, doc)
	}
	return filtered
}

package prompt

import (
	"testing"

	"support-chatbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestBuildIncludesPoliciesAndLanguage(t *testing.T) {
	p := NewQABuilder("Acme", "Acme screenshot").
		WithLanguage("Spanish").
		Build()

	assert.Contains(t, p, "helping Acme users")
	assert.Contains(t, p, "Answer in the Spanish language")
	assert.Contains(t, p, "admit it openly without fabricating responses")
	assert.Contains(t, p, "![Acme screenshot](")
}

func TestBuildDefaultsToEnglish(t *testing.T) {
	p := NewQABuilder("Acme", "Acme screenshot").Build()

	assert.Contains(t, p, "Answer in the English language")
}

func TestBuildRendersDocumentsWithImageURLs(t *testing.T) {
	docs := []store.Document{
		{Content: "export is under Settings"},
		{
			Content:  "see the billing page",
			Metadata: map[string]interface{}{"page_image_url": "https://cdn.example.com/billing.png"},
		},
	}

	p := NewQABuilder("Acme", "Acme screenshot").
		WithDocuments(docs).
		WithImageDescription("a settings dialog").
		Build()

	assert.Contains(t, p, "export is under Settings")
	assert.Contains(t, p, "see the billing page")
	assert.Contains(t, p, "Image URLs: https://cdn.example.com/billing.png")
	assert.Contains(t, p, "Image Description: a settings dialog")
}

func TestImageURLsFromMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]interface{}
		expected []string
	}{
		{
			name:     "nil metadata",
			metadata: nil,
			expected: nil,
		},
		{
			name:     "page_image_url wins",
			metadata: map[string]interface{}{"page_image_url": "a", "image_urls": []string{"b"}, "image": "c"},
			expected: []string{"a"},
		},
		{
			name:     "image_urls as string slice",
			metadata: map[string]interface{}{"image_urls": []string{"a", "b"}},
			expected: []string{"a", "b"},
		},
		{
			name:     "image_urls as interface slice from JSON",
			metadata: map[string]interface{}{"image_urls": []interface{}{"a", "", "b", 42}},
			expected: []string{"a", "b"},
		},
		{
			name:     "image_urls as space separated string",
			metadata: map[string]interface{}{"image_urls": "a b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "image key",
			metadata: map[string]interface{}{"image": "a"},
			expected: []string{"a"},
		},
		{
			name:     "image_path key",
			metadata: map[string]interface{}{"image_path": "a"},
			expected: []string{"a"},
		},
		{
			name:     "empty values ignored",
			metadata: map[string]interface{}{"page_image_url": "", "image": ""},
			expected: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ImageURLsFromMetadata(tc.metadata))
		})
	}
}

package prompt

import (
	"strings"

	"support-chatbot-be/pkg/store"
)

// QABuilder assembles the answering system prompt: policy bullets, retrieved
// context, optional image description and the target answer language.
type QABuilder struct {
	productName       string
	screenshotAltText string

	language         string
	documents        []store.Document
	imageDescription string
}

func NewQABuilder(productName, screenshotAltText string) *QABuilder {
	return &QABuilder{
		productName:       productName,
		screenshotAltText: screenshotAltText,
	}
}

func (b *QABuilder) WithLanguage(language string) *QABuilder {
	b.language = language
	return b
}

func (b *QABuilder) WithDocuments(docs []store.Document) *QABuilder {
	b.documents = docs
	return b
}

func (b *QABuilder) WithImageDescription(desc string) *QABuilder {
	b.imageDescription = desc
	return b
}

// Build renders the system prompt.
func (b *QABuilder) Build() string {
	language := b.language
	if language == "" {
		language = "English"
	}

	var p strings.Builder

	b.writeRole(&p, language)
	b.writePolicies(&p)
	b.writeContext(&p)
	b.writeReminder(&p, language)

	return p.String()
}

func (b *QABuilder) writeRole(p *strings.Builder, language string) {
	p.WriteString("You are a multilingual, helpful, and friendly assistant that can receive images but not files, ")
	p.WriteString("and respond to questions and answers in every language. Answer in the " + language + " language. ")
	p.WriteString("You focus on helping " + b.productName + " users with their questions.\n\n")
}

func (b *QABuilder) writePolicies(p *strings.Builder) {
	p.WriteString("- If you do not have the information in the CONTEXT to answer a question, admit it openly without fabricating responses.\n")
	p.WriteString("- If a question or image is unrelated to " + b.productName + ", kindly inform the user that your assistance is focused on " + b.productName + "-related topics.\n")
	p.WriteString("- Add links in the answer only if the link appears in the CONTEXT and it is relevant to the answer.\n")
	p.WriteString("- Don't make up links that do not exist in the CONTEXT.\n")
	p.WriteString("- CRITICAL REQUIREMENT: If there are any image URLs in the CONTEXT or if image description contains a URL, you MUST include EACH image in your response using EXACTLY this markdown format: ![" + b.screenshotAltText + "](the_exact_image_url)\n")
	p.WriteString("- You MUST NOT modify the image URLs in any way - use them exactly as provided\n")
	p.WriteString("- You MUST include ALL image URLs that appear in the CONTEXT\n")
	p.WriteString("- Do not reference 'the image' or 'as shown in the image' in your response; just incorporate the information from the image description directly into your answer.\n")
	p.WriteString("- When questions involve code, scripts, or technical implementation, prioritize including code examples in your response if they exist in the CONTEXT.\n")
	p.WriteString("- If the user's question is valid and there is no documentation or CONTEXT about it, let them know that they can leave feedback, ")
	p.WriteString("and you will do your best to improve the knowledge base.\n\n")
}

func (b *QABuilder) writeContext(p *strings.Builder) {
	p.WriteString("=========\n")
	p.WriteString("CONTEXT: " + b.renderDocuments() + "\n")
	p.WriteString("Image Description: " + b.imageDescription + "\n")
	p.WriteString("=========\n")
}

func (b *QABuilder) writeReminder(p *strings.Builder, language string) {
	p.WriteString("- FINAL REMINDER: You MUST include ALL image URLs from the CONTEXT in your response using this exact format: ![" + b.screenshotAltText + "](exact_image_url)\n")
	p.WriteString("Answer in the " + language + " language:")
}

func (b *QABuilder) renderDocuments() string {
	if len(b.documents) == 0 {
		return ""
	}
	parts := make([]string, 0, len(b.documents))
	for _, doc := range b.documents {
		part := doc.Content
		if urls := ImageURLsFromMetadata(doc.Metadata); len(urls) > 0 {
			part += "\nImage URLs: " + strings.Join(urls, " ")
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n\n")
}

// ImageURLsFromMetadata extracts image references from document metadata in
// priority order: page_image_url, image_urls, image, image_path.
func ImageURLsFromMetadata(metadata map[string]interface{}) []string {
	if metadata == nil {
		return nil
	}

	if v, ok := metadata["page_image_url"].(string); ok && v != "" {
		return []string{v}
	}
	if v, ok := metadata["image_urls"]; ok {
		switch urls := v.(type) {
		case []string:
			if len(urls) > 0 {
				return urls
			}
		case []interface{}:
			var out []string
			for _, u := range urls {
				if s, ok := u.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if urls != "" {
				return strings.Fields(urls)
			}
		}
	}
	if v, ok := metadata["image"].(string); ok && v != "" {
		return []string{v}
	}
	if v, ok := metadata["image_path"].(string); ok && v != "" {
		return []string{v}
	}
	return nil
}

package prompt

import "strings"

// ImageAnalysisPrompt instructs the vision model to describe, not answer.
// The description is handed to the answering model as auxiliary context.
const ImageAnalysisPrompt = `Given the following question and images, provide necessary and concise data about the images to help answer the question.
Do not try to answer the question itself. This will be passed to another model which needs the data about the images.
Describe relevant visual elements, text, diagrams, UI components, or other details visible in the images that relate to the user's question.
If there are multiple images, note any relationships or differences between them that might be relevant.`

// ImageRelation builds the yes/no prompt deciding whether a follow-up
// question requires re-inspecting a previously discussed image.
func ImageRelation(chatHistory, imageDescription, followUpQuestion string) string {
	descriptionPart := ""
	if imageDescription != "" {
		descriptionPart = "Here is the description of the previously discussed image:\n" + imageDescription + "\n"
	}

	var b strings.Builder
	b.WriteString("You are analyzing a conversation to determine whether a follow-up question is related to an image previously discussed in the conversation.\n\n")
	b.WriteString("Here is the chat history:\n")
	b.WriteString(chatHistory)
	b.WriteString("\n\n")
	b.WriteString(descriptionPart)
	b.WriteString("\nHere is the follow-up question:\n")
	b.WriteString(`"` + followUpQuestion + `"` + "\n\n")
	b.WriteString(`Determine if the follow-up question may be related to the image previously described in the conversation and if there is a need to have another look at the image to answer the question or you can use previous AI answers to answer the question. Answer "Yes" if you must see the image again and "No" if you don't. Provide no additional commentary.`)
	return b.String()
}

// ConsolidatedInputProcessing builds the single-call prompt that detects
// language, translates, contextualizes and (for first messages) titles the
// conversation, returning strict JSON.
func ConsolidatedInputProcessing(productName, userQuestion, chatHistory string, isFirstMessage bool) string {
	first := "false"
	if isFirstMessage {
		first = "true"
	}
	if chatHistory == "" {
		chatHistory = "(none)"
	}

	var b strings.Builder
	b.WriteString("You are a multilingual assistant that processes user questions for " + productName + ". Your task is to analyze the user's input and return JSON with the following information:\n\n")
	b.WriteString("1. **Language Detection**: Detect the language of the user's input\n")
	b.WriteString("2. **Translation**: If not English, translate the question to English (keep original if already English)\n")
	b.WriteString("3. **Contextualization**: If chat history is provided, create a standalone version of the question that incorporates relevant context from the conversation history\n")
	b.WriteString("4. **Title Generation**: Generate a conversation title in the original language (only if this is the first message)\n\n")
	b.WriteString("**Input:**\n")
	b.WriteString("- User Question: " + userQuestion + "\n")
	b.WriteString("- Chat History: " + chatHistory + "\n")
	b.WriteString("- Is First Message: " + first + "\n\n")
	b.WriteString("**Instructions:**\n")
	b.WriteString("- For contextualization: If the question needs context from chat history, rephrase it to be standalone and " + productName + "-specific. If it doesn't need context (e.g., \"thanks\"), return the original question.\n")
	b.WriteString("- For translation: Always translate to English, even if the original is in another language. If already English, return the same text.\n")
	b.WriteString("- For title: If isFirstMessage is true, you ABSOLUTELY MUST generate a concise title (under 50 characters) in the original language. Try to infer a meaningful title even from simple inputs (e.g., 'Greeting' for 'hi', 'Question about X' for 'What is X?'). If you genuinely cannot infer any meaningful title, you ABSOLUTELY MUST use \"New Chat\" as the title. DO NOT return null for conversationTitle if isFirstMessage is true.\n")
	b.WriteString("- For language: Return the language name (e.g., \"Spanish\", \"French\", \"English\")\n\n")
	b.WriteString("**Response Format (strict JSON):**\n")
	b.WriteString("{\n")
	b.WriteString("  \"detectedLanguage\": \"language_name\",\n")
	b.WriteString("  \"translatedQuestion\": \"question_in_english\",\n")
	b.WriteString("  \"contextualizedQuestion\": \"standalone_question_with_context\",\n")
	b.WriteString("  \"conversationTitle\": \"title_in_original_language\"\n")
	b.WriteString("}\n\n")
	b.WriteString("Respond only with valid JSON, no additional text.")
	return b.String()
}

package constant

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"

	// GreetingMessage opens every new conversation transcript. It is shown to
	// the user but never sent to the model.
	GreetingMessage = "Hi"

	// SSE event names emitted on the streaming answer endpoint.
	SSEEventConnected = "connected"
	SSEEventToken     = "token"
	SSEEventComplete  = "complete"
	SSEEventDone      = "done"
	SSEEventError     = "error"

	// WebSocket room events the chat widget listens for.
	WSEventTokenStream       = "tokenStream"
	WSEventStageUpdate       = "stageUpdate"
	WSEventUploadStatus      = "uploadStatus"
	WSEventRemoveThumbnails  = "removeThumbnails"
	WSEventEmbeddingComplete = "embeddingComplete"

	// Knowledge base document types used by the language-based source filter.
	DocTypeTxt       = "txt"
	DocTypeUserInput = "user_input"
	DocTypeOther     = "other"
	DocTypeVbs       = "vbs"

	// EmbedSuccessMessage closes a finished embedding session.
	EmbedSuccessMessage = "\n\n**Your text and images (if provided) have been successfully embedded.**"
)

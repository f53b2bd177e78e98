package dto

type EmbedMessageRequest struct {
	ChatbotId string   `json:"chatbot_id"`
	RoomId    string   `json:"room_id" validate:"required"`
	Message   string   `json:"message"`
	ImageUrls []string `json:"image_urls"`
}

type EmbedMessageResponse struct {
	Stage   int    `json:"stage"`
	Message string `json:"message"`
	Done    bool   `json:"done"`
}

// PublishEmbedDocumentMessage travels over the ingestion topic; the consumer
// chunks, embeds and upserts it into the knowledge base.
type PublishEmbedDocumentMessage struct {
	DocId     string                 `json:"doc_id"`
	ChatbotId string                 `json:"chatbot_id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Header    string                 `json:"header"`
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// Embedding session stages, as exposed over stageUpdate events. The keyword
// creates the session at stage 1 and is consumed as a pure mode switch;
// header, text and images walk it to 4, and a successful embed deletes the
// row.
const (
	StageStarted     = 1
	StageAwaitHeader = 2
	StageAwaitText   = 3
	StageAwaitImages = 4
)

// SessionImage is an uploaded image awaiting embedding, with its generated
// description.
type SessionImage struct {
	Url         string `json:"url"`
	Description string `json:"description"`
}

// RoomSession is the persisted state of an in-progress embedding session.
type RoomSession struct {
	Id        uuid.UUID
	ChatbotId string
	RoomId    string
	Stage     int
	Header    string
	Text      string
	Images    []SessionImage
	CreatedAt time.Time
	UpdatedAt *time.Time
}

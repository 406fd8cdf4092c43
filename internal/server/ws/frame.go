// Package ws implements the realtime status channel: a websocket endpoint,
// an in-process hub of open sockets, and a relay that fans paper status
// changes out to every registered session of the owning user.
package ws

import (
	"time"

	"github.com/avolkov/paperstand/internal/server/models"
)

// Outbound frame types.
const (
	FrameTypeStatusUpdate = "PAPER_STATUS_UPDATE"
	FrameTypeStatus       = "PAPER_STATUS"
	FrameTypeError        = "ERROR"
)

// Inbound actions a client may send.
const ActionPaperStatus = "paperProcessStatus"

// Frame is one outbound websocket message. Status frames carry the paper
// fields at the top level; error frames carry only Message.
type Frame struct {
	Type         string    `json:"type"`
	PaperID      string    `json:"paperId,omitempty"`
	Status       string    `json:"status,omitempty"`
	Title        string    `json:"title,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	LastUpdated  time.Time `json:"lastUpdated,omitzero"`
	Message      string    `json:"message,omitempty"`
}

// InboundMessage is a client request on the socket.
type InboundMessage struct {
	Action  string `json:"action"`
	PaperID string `json:"paperId"`
}

// StatusUpdateFrame builds the push frame for a paper's new state.
func StatusUpdateFrame(paper *models.Paper) *Frame {
	return statusFrame(FrameTypeStatusUpdate, paper)
}

// StatusFrame builds the reply frame for an explicit status query.
func StatusFrame(paper *models.Paper) *Frame {
	return statusFrame(FrameTypeStatus, paper)
}

// ErrorFrame builds an error reply.
func ErrorFrame(message string) *Frame {
	return &Frame{Type: FrameTypeError, Message: message}
}

func statusFrame(frameType string, paper *models.Paper) *Frame {
	return &Frame{
		Type:         frameType,
		PaperID:      paper.ID,
		Status:       paper.Status,
		Title:        paper.Title,
		ErrorMessage: paper.ErrorMessage,
		LastUpdated:  paper.UpdatedAt,
	}
}

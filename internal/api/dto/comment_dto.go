package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	TicketID ID     `json:"idTicket" validate:"gt=0"`
	Content  string `json:"contenido" validate:"required,max=4000"`
}

// CommentResponse view.
type CommentResponse struct {
	ID       int64         `json:"idComentario"`
	TicketID int64         `json:"idTicket"`
	Content  string        `json:"contenido"`
	Date     time.Time     `json:"fecha"`
	AuthorID int64         `json:"idUsuario"`
	Author   *UserResponse `json:"usuario"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:       comment.ID,
		TicketID: comment.TicketID,
		Content:  comment.Content,
		Date:     comment.CreatedAt,
		AuthorID: comment.AuthorID,
		Author:   userResponsePtr(comment.Author),
	}
}

// NewCommentList maps a thread.
func NewCommentList(comments []domain.Comment) []CommentResponse {
	items := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, NewCommentResponse(comment))
	}
	return items
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a message posted on a task
type Comment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID        primitive.ObjectID `bson:"task" json:"task"`
	AuthorID      string             `bson:"author" json:"authorId"`
	Content       string             `bson:"content" json:"content"`
	AttachmentURL string             `bson:"attachmentUrl,omitempty" json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"timestamp"`
}

// CommentView is a comment joined with its author's profile
type CommentView struct {
	Comment
	Author *UserSummary `json:"author"`
}

// CreateCommentRequest is the request body for posting a comment
type CreateCommentRequest struct {
	Content       string `json:"content"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
}

// Package comment stores comment annotations: threads of comments attached to
// a point in a document.
package comment

import (
	"strings"

	"annotastore/internal/annotation"
	"annotastore/internal/apperr"
	"annotastore/internal/store"
	"annotastore/internal/user"
)

type AttachmentRef struct {
	AttachmentID int64  `json:"attachmentId" bson:"attachmentId"`
	Name         string `json:"name,omitempty" bson:"name,omitempty"`
	URL          string `json:"url,omitempty" bson:"url,omitempty"`
}

type TaggedContact struct {
	UserID  string    `json:"userId" bson:"userId"`
	Contact *user.Ref `json:"contact,omitempty" bson:"contact,omitempty"`
	Text    string    `json:"text,omitempty" bson:"text,omitempty"`
}

type Comment struct {
	CommentID          string                   `json:"commentId" bson:"commentId"`
	CommentText        string                   `json:"commentText,omitempty" bson:"commentText,omitempty"`
	CommentHTML        string                   `json:"commentHtml,omitempty" bson:"commentHtml,omitempty"`
	From               *user.Ref                `json:"from,omitempty" bson:"from,omitempty"`
	To                 []user.Ref               `json:"to,omitempty" bson:"to,omitempty"`
	TaggedUserContacts []TaggedContact          `json:"taggedUserContacts,omitempty" bson:"taggedUserContacts,omitempty"`
	Attachments        map[string]AttachmentRef `json:"attachments,omitempty" bson:"attachments,omitempty"`
	CreatedAt          int64                    `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

type (
	Record  = annotation.Record[Comment]
	Partial = annotation.Partial[Comment]
	Service = annotation.Service[Comment]
)

var actions = []annotation.Action{
	annotation.ActionCommentAnnotationAdd,
	annotation.ActionCommentAnnotationDelete,
	annotation.ActionCommentAdd,
	annotation.ActionCommentDelete,
	annotation.ActionCommentUpdate,
	annotation.ActionAttachmentAdd,
	annotation.ActionAttachmentDelete,
}

func NewService(records store.Collection[Record], apiKey string) *Service {
	return annotation.NewService(records, annotation.Options[Comment]{
		Kind:     "comments",
		APIKey:   apiKey,
		Validate: Validate,
		Actions:  actions,
	})
}

// Validate fills commentId from the entry key and checks the user refs.
func Validate(entryID string, c Comment) (Comment, error) {
	switch c.CommentID {
	case "":
		c.CommentID = entryID
	case entryID:
	default:
		return c, apperr.Validation("comment %q carries commentId %q", entryID, c.CommentID)
	}
	if c.From != nil && strings.TrimSpace(c.From.UserID) == "" {
		return c, apperr.Validation("comment %q: from.userId is required", entryID)
	}
	for _, to := range c.To {
		if strings.TrimSpace(to.UserID) == "" {
			return c, apperr.Validation("comment %q: to[].userId is required", entryID)
		}
	}
	for _, tagged := range c.TaggedUserContacts {
		if strings.TrimSpace(tagged.UserID) == "" {
			return c, apperr.Validation("comment %q: taggedUserContacts[].userId is required", entryID)
		}
	}
	for key, ref := range c.Attachments {
		if ref.AttachmentID == 0 {
			return c, apperr.Validation("comment %q: attachment %q has no attachmentId", entryID, key)
		}
	}
	return c, nil
}

package comment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotastore/internal/annotation"
	"annotastore/internal/apperr"
	"annotastore/internal/store/memory"
	"annotastore/internal/user"
)

func newService(apiKey string) *Service {
	return NewService(memory.NewCollection[Record](memory.New(), "comment_annotations"), apiKey)
}

func TestValidate(t *testing.T) {
	c, err := Validate("c1", Comment{CommentText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "c1", c.CommentID)

	_, err = Validate("c1", Comment{CommentID: "c1"})
	assert.NoError(t, err)

	_, err = Validate("c1", Comment{CommentID: "c2"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Validate("c1", Comment{From: &user.Ref{}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Validate("c1", Comment{To: []user.Ref{{UserID: "u1"}, {}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Validate("c1", Comment{TaggedUserContacts: []TaggedContact{{Text: "@x"}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Validate("c1", Comment{Attachments: map[string]AttachmentRef{"1": {Name: "a.png"}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSaveDecodedPayload(t *testing.T) {
	svc := newService("api-key")
	ctx := context.Background()

	var annotations map[string]Partial
	require.NoError(t, json.Unmarshal([]byte(`{
		"ann-1": {
			"entries": {
				"c2": {"commentText": "second", "from": {"userId": "u2"}},
				"c1": {"commentText": "first", "from": {"userId": "u1", "name": "Ada"},
				       "attachments": {"42": {"attachmentId": 42, "name": "a.png", "url": "/api/attachments/42"}}}
			},
			"metadata": {"pageId": "p1"}
		}
	}`), &annotations))

	env := svc.Submit(ctx, annotation.SaveRequest[Comment]{
		OrganizationID: "org-1",
		DocumentID:     "doc-1",
		Event:          annotation.ActionCommentAdd,
		Annotations:    annotations,
	})
	require.True(t, env.Success, env.Error)
	require.True(t, env.Data.Results[0].Success)

	got := svc.Get(ctx, "org-1", annotation.GetQuery{DocumentIDs: []string{"doc-1"}})
	require.True(t, got.Success)
	rec := got.Data["ann-1"]
	assert.Equal(t, []string{"c2", "c1"}, rec.Entries.Keys())

	c1, ok := rec.Entries.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "c1", c1.CommentID)
	assert.Equal(t, "Ada", c1.From.Name)
	assert.Equal(t, int64(42), c1.Attachments["42"].AttachmentID)
	assert.Equal(t, "api-key", rec.Metadata["apiKey"])
	assert.Equal(t, "p1", rec.Metadata["pageId"])
}

func TestRejectsReactionEvents(t *testing.T) {
	env := newService("").Submit(context.Background(), annotation.SaveRequest[Comment]{
		OrganizationID: "org-1",
		DocumentID:     "doc-1",
		Event:          annotation.ActionReactionAdd,
		Annotations:    map[string]Partial{"ann-1": {Entries: annotation.Entries[Comment]{{ID: "c1"}}}},
	})
	assert.Equal(t, apperr.CodeValidation, env.ErrorCode)
}

func TestInvalidCommentFailsOnlyItsAnnotation(t *testing.T) {
	svc := newService("")
	ctx := context.Background()

	env := svc.Save(ctx, "org-1", map[string]Partial{
		"good": {Entries: annotation.Entries[Comment]{{ID: "c1", Payload: Comment{CommentText: "ok"}}}},
		"bad":  {Entries: annotation.Entries[Comment]{{ID: "c1", Payload: Comment{CommentID: "other"}}}},
	}, "doc-1")
	require.True(t, env.Success)
	require.Len(t, env.Data.Results, 2)
	assert.Equal(t, "bad", env.Data.Results[0].AnnotationID)
	assert.Equal(t, apperr.CodeValidation, env.Data.Results[0].ErrorCode)
	assert.True(t, env.Data.Results[1].Success)

	got := svc.Get(ctx, "org-1", annotation.GetQuery{})
	assert.Len(t, got.Data, 1)
}

func TestDeleteComment(t *testing.T) {
	svc := newService("")
	ctx := context.Background()

	require.True(t, svc.Save(ctx, "org-1", map[string]Partial{
		"ann-1": {Entries: annotation.Entries[Comment]{
			{ID: "c1", Payload: Comment{CommentText: "one"}},
			{ID: "c2", Payload: Comment{CommentText: "two"}},
		}},
	}, "doc-1").Success)

	env := svc.DeleteEntry(ctx, "org-1", "ann-1", "c1")
	require.True(t, env.Success)
	assert.True(t, env.Data.Removed)

	rec := svc.Get(ctx, "org-1", annotation.GetQuery{}).Data["ann-1"]
	assert.Equal(t, []string{"c2"}, rec.Entries.Keys())
}

package reaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotastore/internal/annotation"
	"annotastore/internal/apperr"
	"annotastore/internal/store/memory"
	"annotastore/internal/user"
)

func TestValidate(t *testing.T) {
	r, err := Validate("r1", Reaction{Icon: "  thumbsup "})
	require.NoError(t, err)
	assert.Equal(t, "thumbsup", r.Icon)

	_, err = Validate("r1", Reaction{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Validate("r1", Reaction{Icon: "heart", User: &user.Ref{}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSaveMergesReactions(t *testing.T) {
	svc := NewService(memory.NewCollection[Record](memory.New(), "reaction_annotations"), "")
	ctx := context.Background()

	save := func(id, icon string) {
		env := svc.Save(ctx, "org-1", map[string]Partial{
			"ann-1": {Entries: annotation.Entries[Reaction]{{ID: id, Payload: Reaction{Icon: icon, User: &user.Ref{UserID: "u1"}}}}},
		}, "doc-1")
		require.True(t, env.Success)
		require.True(t, env.Data.Results[0].Success, env.Data.Results[0].Error)
	}
	save("r1", "heart")
	save("r2", "fire")
	save("r1", "thumbsup")

	got := svc.Get(ctx, "org-1", annotation.GetQuery{AnnotationIDs: []string{"ann-1"}})
	require.True(t, got.Success)
	rec := got.Data["ann-1"]
	assert.Equal(t, []string{"r1", "r2"}, rec.Entries.Keys())
	r1, _ := rec.Entries.Get("r1")
	assert.Equal(t, "thumbsup", r1.Icon)

	require.True(t, svc.Delete(ctx, "org-1", "ann-1").Success)
	assert.Empty(t, svc.Get(ctx, "org-1", annotation.GetQuery{}).Data)
}

func TestMissingIconIsRejected(t *testing.T) {
	svc := NewService(memory.NewCollection[Record](memory.New(), "reaction_annotations"), "")

	env := svc.Save(context.Background(), "org-1", map[string]Partial{
		"ann-1": {Entries: annotation.Entries[Reaction]{{ID: "r1"}}},
	}, "doc-1")
	require.True(t, env.Success)
	assert.Equal(t, apperr.CodeValidation, env.Data.Results[0].ErrorCode)
}

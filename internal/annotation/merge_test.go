package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entries(pairs ...string) Entries[note] {
	es := Entries[note]{}
	for i := 0; i+1 < len(pairs); i += 2 {
		es.Set(pairs[i], note{Text: pairs[i+1]})
	}
	return es
}

func TestMergeWithoutExistingTakesIncoming(t *testing.T) {
	incoming := Record[note]{
		OrganizationID: "org-1",
		DocumentID:     "doc-1",
		AnnotationID:   "ann-1",
		Entries:        entries("c1", "hello"),
		Metadata:       map[string]any{"k": "v"},
	}
	got := Merge(nil, incoming)
	assert.Equal(t, incoming, got)

	got.Metadata["k"] = "changed"
	assert.Equal(t, "v", incoming.Metadata["k"])
}

func TestMergeIsAdditive(t *testing.T) {
	existing := Record[note]{DocumentID: "doc-1", AnnotationID: "ann-1", Entries: entries("c1", "X")}
	got := Merge(&existing, Record[note]{Entries: entries("c2", "Y")})

	assert.Equal(t, []string{"c1", "c2"}, got.Entries.Keys())
	assert.Equal(t, map[string]note{"c1": {Text: "X"}, "c2": {Text: "Y"}}, got.Entries.Map())
	assert.Equal(t, "doc-1", got.DocumentID)
}

func TestMergeLastWriteWins(t *testing.T) {
	existing := Record[note]{Entries: entries("c1", "X", "c2", "keep")}
	got := Merge(&existing, Record[note]{Entries: entries("c1", "Z")})

	assert.Equal(t, []string{"c1", "c2"}, got.Entries.Keys())
	c1, _ := got.Entries.Get("c1")
	assert.Equal(t, "Z", c1.Text)
	assert.Equal(t, "X", existing.Entries.Map()["c1"].Text, "existing record must not be modified")
}

func TestMergeIsIdempotent(t *testing.T) {
	existing := Record[note]{Entries: entries("c1", "X"), Metadata: map[string]any{"a": 1}}
	incoming := Record[note]{Entries: entries("c2", "Y"), Metadata: map[string]any{"b": 2}}

	once := Merge(&existing, incoming)
	twice := Merge(&once, incoming)
	assert.Equal(t, once, twice)
}

func TestMergeMetadataOneLevelDeep(t *testing.T) {
	existing := Record[note]{Metadata: map[string]any{
		"a":      1,
		"nested": map[string]any{"x": 1, "y": 2},
	}}
	got := Merge(&existing, Record[note]{Metadata: map[string]any{
		"b":      2,
		"nested": map[string]any{"x": 9},
	}})

	assert.Equal(t, map[string]any{
		"a":      1,
		"b":      2,
		"nested": map[string]any{"x": 9},
	}, got.Metadata)
	assert.Len(t, existing.Metadata, 2)
}

func TestRemoveEntry(t *testing.T) {
	rec := Record[note]{Entries: entries("c1", "X", "c2", "Y")}

	out, removed := RemoveEntry(rec, "c1")
	assert.True(t, removed)
	assert.Equal(t, []string{"c2"}, out.Entries.Keys())
	assert.Equal(t, []string{"c1", "c2"}, rec.Entries.Keys())

	same, removed := RemoveEntry(rec, "missing")
	assert.False(t, removed)
	assert.Equal(t, []string{"c1", "c2"}, same.Entries.Keys())
}

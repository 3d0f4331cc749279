package annotation

import "maps"

// Merge folds incoming into existing and returns the record to store.
//
// Without an existing record the incoming one is taken as is. Otherwise every
// incoming entry replaces the entry with the same key wholesale or is appended
// after the existing ones; keys the incoming record does not mention are kept.
// Metadata merges the same way, one level deep. Neither argument is modified.
func Merge[E any](existing *Record[E], incoming Record[E]) Record[E] {
	if existing == nil {
		out := incoming
		out.Entries = incoming.Entries.Clone()
		if out.Entries == nil {
			out.Entries = Entries[E]{}
		}
		out.Metadata = maps.Clone(incoming.Metadata)
		return out
	}

	out := *existing
	out.Entries = existing.Entries.Clone()
	for _, e := range incoming.Entries {
		out.Entries.Set(e.ID, e.Payload)
	}
	if out.Entries == nil {
		out.Entries = Entries[E]{}
	}

	if len(incoming.Metadata) > 0 {
		merged := make(map[string]any, len(existing.Metadata)+len(incoming.Metadata))
		maps.Copy(merged, existing.Metadata)
		maps.Copy(merged, incoming.Metadata)
		out.Metadata = merged
	} else {
		out.Metadata = maps.Clone(existing.Metadata)
	}

	if incoming.DocumentID != "" {
		out.DocumentID = incoming.DocumentID
	}
	return out
}

// RemoveEntry returns rec without entryID and whether the entry existed.
func RemoveEntry[E any](rec Record[E], entryID string) (Record[E], bool) {
	if _, ok := rec.Entries.Get(entryID); !ok {
		return rec, false
	}
	out := rec
	out.Entries = rec.Entries.Clone()
	removed := out.Entries.Delete(entryID)
	return out, removed
}

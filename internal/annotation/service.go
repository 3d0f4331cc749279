package annotation

import (
	"context"
	"errors"
	"maps"
	"sort"
	"strings"

	"annotastore/internal/apperr"
	"annotastore/internal/identity"
	"annotastore/internal/response"
	"annotastore/internal/store"
	"annotastore/pkg/logger"
)

var errAllFailed = errors.New("no annotation could be written")

// EntryValidator normalizes one incoming entry or rejects it.
type EntryValidator[E any] func(entryID string, entry E) (E, error)

type Options[E any] struct {
	// Kind names the records in messages, e.g. "comments".
	Kind string
	// APIKey is stamped into metadata.apiKey on every save when set.
	APIKey   string
	Validate EntryValidator[E]
	// Actions lists the save events accepted. Empty accepts any.
	Actions []Action
}

type Service[E any] struct {
	records  store.Collection[Record[E]]
	kind     string
	apiKey   string
	validate EntryValidator[E]
	actions  map[Action]bool
}

func NewService[E any](records store.Collection[Record[E]], opts Options[E]) *Service[E] {
	kind := opts.Kind
	if kind == "" {
		kind = "annotations"
	}
	var actions map[Action]bool
	if len(opts.Actions) > 0 {
		actions = make(map[Action]bool, len(opts.Actions))
		for _, a := range opts.Actions {
			actions[a] = true
		}
	}
	return &Service[E]{
		records:  records,
		kind:     kind,
		apiKey:   opts.APIKey,
		validate: opts.Validate,
		actions:  actions,
	}
}

type GetQuery struct {
	AnnotationIDs []string `json:"annotationIds,omitempty"`
	DocumentIDs   []string `json:"documentIds,omitempty"`
	// FolderID restricts the result to records whose metadata.folderId
	// matches. It only applies together with AllDocuments.
	FolderID     string `json:"folderId,omitempty"`
	AllDocuments bool   `json:"allDocuments,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// Get returns the records of org matching q keyed by annotation id. A query
// with no filter returns every record of the organization.
func (s *Service[E]) Get(ctx context.Context, org string, q GetQuery) response.Envelope[map[string]Record[E]] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[map[string]Record[E]](err)
	}

	byFolder := q.AllDocuments && q.FolderID != ""
	filtered := byFolder || s.apiKey != ""
	query := store.Query{
		IDs:        compact(q.AnnotationIDs),
		Partitions: compact(q.DocumentIDs),
		Limit:      q.Limit,
	}
	if filtered {
		query.Limit = 0
	}

	found, err := s.records.FetchMany(ctx, scope, query)
	if err != nil {
		logger.Sugar.Errorf("Failed to get %s for organization %s: %v", s.kind, scope.OrganizationID(), err)
		return response.Fail[map[string]Record[E]](apperr.Storage("getting "+s.kind, err))
	}

	out := make(map[string]Record[E], len(found))
	for id, rec := range found {
		if byFolder && rec.Metadata["folderId"] != q.FolderID {
			continue
		}
		// Records written under another API key are not ours to return.
		if s.apiKey != "" && rec.Metadata["apiKey"] != s.apiKey {
			continue
		}
		out[id] = rec
	}
	if filtered && q.Limit > 0 && len(out) > q.Limit {
		ids := make([]string, 0, len(out))
		for id := range out {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids[q.Limit:] {
			delete(out, id)
		}
	}
	return response.OK(out)
}

// SaveRequest carries one save call. DocumentID and FolderID apply to every
// annotation in it; Event is the client action that triggered the save.
type SaveRequest[E any] struct {
	OrganizationID string                `json:"organizationId"`
	DocumentID     string                `json:"documentId,omitempty"`
	FolderID       string                `json:"folderId,omitempty"`
	Event          Action                `json:"event,omitempty"`
	Annotations    map[string]Partial[E] `json:"annotations"`
}

type SaveResult struct {
	AnnotationID string `json:"annotationId"`
	DocumentID   string `json:"documentId,omitempty"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

type SaveData struct {
	Results []SaveResult `json:"results"`
}

// Save merges each partial annotation into what is stored under org.
func (s *Service[E]) Save(ctx context.Context, org string, annotations map[string]Partial[E], documentID string) response.Envelope[SaveData] {
	return s.Submit(ctx, SaveRequest[E]{OrganizationID: org, DocumentID: documentID, Annotations: annotations})
}

// Submit runs a save request. Annotations are merged and written one by one;
// each reports its own outcome. Only when the backend fails for all of them
// does the call fail as a whole.
func (s *Service[E]) Submit(ctx context.Context, req SaveRequest[E]) response.Envelope[SaveData] {
	scope, err := identity.Authorize(ctx, req.OrganizationID)
	if err != nil {
		return response.Fail[SaveData](err)
	}
	if len(req.Annotations) == 0 {
		return response.Fail[SaveData](apperr.Validation("%s must be a non-empty map of annotation id to annotation", s.kind))
	}
	if req.Event != "" {
		if s.actions != nil && !s.actions[req.Event] {
			return response.Fail[SaveData](apperr.Validation("event %q is not accepted for %s", req.Event, s.kind))
		}
		logger.Sugar.Infof("Saving %d %s for organization %s (event %s)", len(req.Annotations), s.kind, scope.OrganizationID(), req.Event)
	}

	ids := make([]string, 0, len(req.Annotations))
	for id := range req.Annotations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	existing := map[string]Record[E]{}
	if lookup := compact(ids); len(lookup) > 0 {
		existing, err = s.records.FetchMany(ctx, scope, store.Query{IDs: lookup})
		if err != nil {
			logger.Sugar.Errorf("Failed to load %s for organization %s: %v", s.kind, scope.OrganizationID(), err)
			return response.Fail[SaveData](apperr.Storage("saving "+s.kind, err))
		}
	}

	results := make([]SaveResult, 0, len(ids))
	storageFailures := 0
	for _, id := range ids {
		res := SaveResult{AnnotationID: id}
		docID, err := s.saveOne(ctx, scope, id, req, existing)
		res.DocumentID = docID
		if err != nil {
			if apperr.KindOf(err) == apperr.KindStorage {
				storageFailures++
				logger.Sugar.Errorf("Failed to save %s %s for organization %s: %v", s.kind, id, scope.OrganizationID(), err)
			}
			res.Error = apperr.Message(err)
			res.ErrorCode = apperr.Code(err)
		} else {
			res.Success = true
		}
		results = append(results, res)
	}

	if storageFailures == len(results) {
		return response.Fail[SaveData](apperr.Storage("saving "+s.kind, errAllFailed))
	}
	return response.OK(SaveData{Results: results})
}

func (s *Service[E]) saveOne(ctx context.Context, scope identity.Scope, id string, req SaveRequest[E], existing map[string]Record[E]) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", apperr.Validation("annotation id must be a non-empty string")
	}
	partial := req.Annotations[id]

	var current *Record[E]
	if rec, ok := existing[id]; ok {
		current = &rec
	}

	docID := req.DocumentID
	if docID == "" {
		docID = partial.DocumentID
	}
	if docID == "" && current != nil {
		docID = current.DocumentID
	}
	if docID == "" {
		return "", apperr.Validation("documentId is required for new annotation %q", id)
	}

	entries := Entries[E]{}
	for _, e := range partial.Entries {
		if strings.TrimSpace(e.ID) == "" {
			return docID, apperr.Validation("annotation %q has an entry with an empty id", id)
		}
		payload := e.Payload
		if s.validate != nil {
			var err error
			if payload, err = s.validate(e.ID, payload); err != nil {
				return docID, err
			}
		}
		entries.Set(e.ID, payload)
	}

	metadata := maps.Clone(partial.Metadata)
	if req.FolderID != "" || s.apiKey != "" {
		if metadata == nil {
			metadata = make(map[string]any, 2)
		}
		if req.FolderID != "" {
			metadata["folderId"] = req.FolderID
		}
		if s.apiKey != "" {
			metadata["apiKey"] = s.apiKey
		}
	}

	merged := Merge(current, Record[E]{
		OrganizationID: scope.OrganizationID(),
		DocumentID:     docID,
		AnnotationID:   id,
		Entries:        entries,
		Metadata:       metadata,
	})
	merged.OrganizationID = scope.OrganizationID()
	merged.AnnotationID = id

	if _, err := s.records.Upsert(ctx, scope, store.Key{Partition: docID, ID: id}, merged); err != nil {
		return docID, apperr.Storage("saving "+s.kind, err)
	}
	return docID, nil
}

// Delete removes one annotation. Deleting a missing annotation succeeds.
func (s *Service[E]) Delete(ctx context.Context, org, annotationID string) response.Envelope[response.None] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[response.None](err)
	}
	if strings.TrimSpace(annotationID) == "" {
		return response.Fail[response.None](apperr.Validation("annotationId is required"))
	}
	if err := s.records.DeleteOne(ctx, scope, annotationID); err != nil {
		logger.Sugar.Errorf("Failed to delete %s %s for organization %s: %v", s.kind, annotationID, scope.OrganizationID(), err)
		return response.Fail[response.None](apperr.Storage("deleting "+s.kind, err))
	}
	return response.OK(response.None{})
}

type DeleteEntryData struct {
	Removed       bool `json:"removed"`
	RecordDeleted bool `json:"recordDeleted"`
}

// DeleteEntry removes one entry from an annotation. When no entries remain
// the annotation itself is deleted.
func (s *Service[E]) DeleteEntry(ctx context.Context, org, annotationID, entryID string) response.Envelope[DeleteEntryData] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[DeleteEntryData](err)
	}
	if strings.TrimSpace(annotationID) == "" || strings.TrimSpace(entryID) == "" {
		return response.Fail[DeleteEntryData](apperr.Validation("annotationId and entryId are required"))
	}

	rec, ok, err := store.FetchOne(ctx, s.records, scope, annotationID)
	if err != nil {
		logger.Sugar.Errorf("Failed to load %s %s for organization %s: %v", s.kind, annotationID, scope.OrganizationID(), err)
		return response.Fail[DeleteEntryData](apperr.Storage("deleting "+s.kind, err))
	}
	if !ok {
		return response.OK(DeleteEntryData{})
	}

	updated, removed := RemoveEntry(rec, entryID)
	if !removed {
		return response.OK(DeleteEntryData{})
	}
	if updated.Entries.Len() == 0 {
		if err := s.records.DeleteOne(ctx, scope, annotationID); err != nil {
			logger.Sugar.Errorf("Failed to delete %s %s for organization %s: %v", s.kind, annotationID, scope.OrganizationID(), err)
			return response.Fail[DeleteEntryData](apperr.Storage("deleting "+s.kind, err))
		}
		return response.OK(DeleteEntryData{Removed: true, RecordDeleted: true})
	}
	if _, err := s.records.Upsert(ctx, scope, store.Key{Partition: updated.DocumentID, ID: annotationID}, updated); err != nil {
		logger.Sugar.Errorf("Failed to rewrite %s %s for organization %s: %v", s.kind, annotationID, scope.OrganizationID(), err)
		return response.Fail[DeleteEntryData](apperr.Storage("deleting "+s.kind, err))
	}
	return response.OK(DeleteEntryData{Removed: true})
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

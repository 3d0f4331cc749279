package handler

import (
	"net/http"

	"annotastore/internal/annotation"
)

// AnnotationHandler serves one annotation kind, comments or reactions.
type AnnotationHandler[E any] struct {
	Service *annotation.Service[E]
}

func NewAnnotationHandler[E any](service *annotation.Service[E]) *AnnotationHandler[E] {
	return &AnnotationHandler[E]{Service: service}
}

type getAnnotationsRequest struct {
	OrganizationID string `json:"organizationId"`
	annotation.GetQuery
}

type deleteAnnotationRequest struct {
	OrganizationID string `json:"organizationId"`
	AnnotationID   string `json:"annotationId"`
	EntryID        string `json:"entryId,omitempty"`
}

func (h *AnnotationHandler[E]) Get(w http.ResponseWriter, r *http.Request) {
	var req getAnnotationsRequest
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Service.Get(r.Context(), req.OrganizationID, req.GetQuery))
}

func (h *AnnotationHandler[E]) Save(w http.ResponseWriter, r *http.Request) {
	var req annotation.SaveRequest[E]
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Service.Submit(r.Context(), req))
}

func (h *AnnotationHandler[E]) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteAnnotationRequest
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Service.Delete(r.Context(), req.OrganizationID, req.AnnotationID))
}

func (h *AnnotationHandler[E]) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	var req deleteAnnotationRequest
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Service.DeleteEntry(r.Context(), req.OrganizationID, req.AnnotationID, req.EntryID))
}

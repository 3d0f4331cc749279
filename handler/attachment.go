package handler

import (
	"mime"
	"net/http"
	"strconv"

	"annotastore/internal/apperr"
	"annotastore/internal/attachment"
	"annotastore/internal/response"
	"annotastore/pkg/logger"
)

type AttachmentHandler struct {
	Service *attachment.Service
	// BodyLimit bounds a save request; base64 inflates the payload by a third.
	BodyLimit int64
}

func NewAttachmentHandler(service *attachment.Service, maxSize int64) *AttachmentHandler {
	return &AttachmentHandler{Service: service, BodyLimit: maxSize*4/3 + 64<<10}
}

type attachmentRequest struct {
	OrganizationID string `json:"organizationId"`
	AttachmentID   int64  `json:"attachmentId"`
}

type saveAttachmentRequest struct {
	OrganizationID string               `json:"organizationId"`
	DocumentID     string               `json:"documentId,omitempty"`
	Attachment     attachment.SaveInput `json:"attachment"`
}

func (h *AttachmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	var req attachmentRequest
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Service.Get(r.Context(), req.OrganizationID, req.AttachmentID))
}

func (h *AttachmentHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveAttachmentRequest
	if !decode(w, r, h.BodyLimit, &req) {
		return
	}
	writeEnvelope(w, h.Service.Save(r.Context(), req.OrganizationID, req.Attachment, req.DocumentID))
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req attachmentRequest
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Service.Delete(r.Context(), req.OrganizationID, req.AttachmentID))
}

// Download streams the raw attachment bytes. The organization defaults to
// the caller's.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeEnvelope(w, response.Fail[response.None](apperr.Validation("attachment id must be an integer")))
		return
	}

	env := h.Service.Get(r.Context(), r.URL.Query().Get("organizationId"), id)
	if !env.Success {
		writeEnvelope(w, env)
		return
	}

	att := env.Data
	w.Header().Set("Content-Type", att.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": att.Name}))
	if att.Checksum != "" {
		w.Header().Set("ETag", strconv.Quote(att.Checksum))
	}
	if _, err := w.Write(att.Data); err != nil {
		logger.Sugar.Warnf("Handler: failed to write attachment %d: %v", id, err)
	}
}

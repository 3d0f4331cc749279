package handler

import (
	"net/http"

	"annotastore/internal/token"
	"annotastore/internal/user"
)

type UserHandler struct {
	Users  *user.Service
	Tokens *token.Service
}

func NewUserHandler(users *user.Service, tokens *token.Service) *UserHandler {
	return &UserHandler{Users: users, Tokens: tokens}
}

type getUsersRequest struct {
	OrganizationID string   `json:"organizationId"`
	UserIDs        []string `json:"userIds"`
}

type saveUserRequest struct {
	OrganizationID string    `json:"organizationId"`
	User           user.User `json:"user"`
}

type tokenRequest struct {
	OrganizationID string `json:"organizationId"`
	UserID         string `json:"userId"`
	Email          string `json:"email,omitempty"`
	IsAdmin        bool   `json:"isAdmin,omitempty"`
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	var req getUsersRequest
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Users.Get(r.Context(), req.OrganizationID, req.UserIDs))
}

func (h *UserHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveUserRequest
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Users.Save(r.Context(), req.OrganizationID, req.User))
}

// Token issues a session token. The route is guarded by the API key, not by
// a session token.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decode(w, r, 0, &req) {
		return
	}
	writeEnvelope(w, h.Tokens.GetToken(r.Context(), req.OrganizationID, req.UserID, req.Email, req.IsAdmin))
}

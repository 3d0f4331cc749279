// Package reaction stores reaction annotations. It shares all of its logic
// with comments; only the entry shape differs.
package reaction

import (
	"strings"

	"annotastore/internal/annotation"
	"annotastore/internal/apperr"
	"annotastore/internal/store"
	"annotastore/internal/user"
)

type Reaction struct {
	Icon     string         `json:"icon" bson:"icon"`
	User     *user.Ref      `json:"user,omitempty" bson:"user,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

type (
	Record  = annotation.Record[Reaction]
	Partial = annotation.Partial[Reaction]
	Service = annotation.Service[Reaction]
)

func NewService(records store.Collection[Record], apiKey string) *Service {
	return annotation.NewService(records, annotation.Options[Reaction]{
		Kind:     "reactions",
		APIKey:   apiKey,
		Validate: Validate,
		Actions:  []annotation.Action{annotation.ActionReactionAdd, annotation.ActionReactionDelete},
	})
}

func Validate(entryID string, r Reaction) (Reaction, error) {
	r.Icon = strings.TrimSpace(r.Icon)
	if r.Icon == "" {
		return r, apperr.Validation("reaction %q: icon is required", entryID)
	}
	if r.User != nil && strings.TrimSpace(r.User.UserID) == "" {
		return r, apperr.Validation("reaction %q: user.userId is required", entryID)
	}
	return r, nil
}

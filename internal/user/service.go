package user

import (
	"context"
	"strings"

	"annotastore/internal/apperr"
	"annotastore/internal/identity"
	"annotastore/internal/response"
	"annotastore/internal/store"
	"annotastore/pkg/logger"
)

type Service struct {
	users store.Collection[User]
}

func NewService(users store.Collection[User]) *Service {
	return &Service{users: users}
}

// Get returns the users of org among userIDs keyed by user id. Unknown ids
// are left out.
func (s *Service) Get(ctx context.Context, org string, userIDs []string) response.Envelope[map[string]User] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[map[string]User](err)
	}

	var ids []string
	for _, id := range userIDs {
		if strings.TrimSpace(id) != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return response.OK(map[string]User{})
	}

	found, err := s.users.FetchMany(ctx, scope, store.Query{IDs: ids})
	if err != nil {
		logger.Sugar.Errorf("Failed to get users for organization %s: %v", scope.OrganizationID(), err)
		return response.Fail[map[string]User](apperr.Storage("getting users", err))
	}
	return response.OK(found)
}

// Save replaces the stored user with u.
func (s *Service) Save(ctx context.Context, org string, u User) response.Envelope[response.None] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[response.None](err)
	}
	if strings.TrimSpace(u.UserID) == "" {
		return response.Fail[response.None](apperr.Validation("user.userId is required"))
	}

	u.OrganizationID = scope.OrganizationID()
	if name := []rune(strings.TrimSpace(u.Name)); u.Initial == "" && len(name) > 0 {
		u.Initial = strings.ToUpper(string(name[:1]))
	}
	if _, err := s.users.Upsert(ctx, scope, store.Key{ID: u.UserID}, u); err != nil {
		logger.Sugar.Errorf("Failed to save user %s for organization %s: %v", u.UserID, scope.OrganizationID(), err)
		return response.Fail[response.None](apperr.Storage("saving user", err))
	}
	return response.OK(response.None{})
}

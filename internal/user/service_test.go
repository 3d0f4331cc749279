package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotastore/internal/apperr"
	"annotastore/internal/store/memory"
)

func newService() *Service {
	return NewService(memory.NewCollection[User](memory.New(), "users"))
}

func TestSaveAndGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	env := svc.Save(ctx, "org-1", User{UserID: "u1", Name: "ada lovelace", Email: "ada@example.com"})
	require.True(t, env.Success, env.Error)
	require.True(t, svc.Save(ctx, "org-1", User{UserID: "u2", Name: "Grace", Initial: "G!"}).Success)

	got := svc.Get(ctx, "org-1", []string{"u1", "u2", "unknown"})
	require.True(t, got.Success)
	require.Len(t, got.Data, 2)
	assert.Equal(t, User{
		OrganizationID: "org-1",
		UserID:         "u1",
		Name:           "ada lovelace",
		Email:          "ada@example.com",
		Initial:        "A",
	}, got.Data["u1"])
	assert.Equal(t, "G!", got.Data["u2"].Initial)
}

func TestSaveReplacesWholeRecord(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	require.True(t, svc.Save(ctx, "org-1", User{UserID: "u1", Name: "Old", Email: "old@example.com"}).Success)
	require.True(t, svc.Save(ctx, "org-1", User{UserID: "u1", Name: "New"}).Success)

	got := svc.Get(ctx, "org-1", []string{"u1"}).Data["u1"]
	assert.Equal(t, "New", got.Name)
	assert.Empty(t, got.Email)
}

func TestOrganizationIDComesFromScope(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	require.True(t, svc.Save(ctx, "org-1", User{OrganizationID: "org-2", UserID: "u1"}).Success)

	assert.Empty(t, svc.Get(ctx, "org-2", []string{"u1"}).Data)
	assert.Equal(t, "org-1", svc.Get(ctx, "org-1", []string{"u1"}).Data["u1"].OrganizationID)
}

func TestGetEmptyList(t *testing.T) {
	env := newService().Get(context.Background(), "org-1", nil)
	require.True(t, env.Success)
	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Data)
}

func TestValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	env := svc.Save(ctx, "org-1", User{Name: "no id"})
	assert.Equal(t, apperr.CodeValidation, env.ErrorCode)
	assert.Equal(t, "user.userId is required", env.Error)

	got := svc.Get(ctx, "", []string{"u1"})
	assert.Equal(t, apperr.CodeValidation, got.ErrorCode)

	env = svc.Save(ctx, "org-1", User{UserID: "u3", Name: "   "})
	require.True(t, env.Success)
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotastore/internal/apperr"
)

func TestOK(t *testing.T) {
	env := OK(map[string]int{"a": 1})
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"a":1},"statusCode":200}`, string(raw))
}

func TestNoneOmitsData(t *testing.T) {
	raw, err := json.Marshal(OK(None{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"statusCode":200}`, string(raw))
}

func TestFail(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("x"), http.StatusBadRequest},
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.Forbidden("x"), http.StatusForbidden},
		{apperr.Storage("saving", errors.New("x")), http.StatusInternalServerError},
		{apperr.Token("x", nil), http.StatusInternalServerError},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		env := Fail[string](tc.err)
		assert.False(t, env.Success)
		assert.Equal(t, tc.status, env.StatusCode)
		assert.Equal(t, apperr.Code(tc.err), env.ErrorCode)
	}

	raw, err := json.Marshal(Fail[map[string]string](apperr.Storage("getting users", errors.New("secret host"))))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"database error while getting users","errorCode":"DATABASE_ERROR","statusCode":500}`, string(raw))
}

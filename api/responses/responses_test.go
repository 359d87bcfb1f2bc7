package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
	"github.com/angelmondragon/libraria-backend/pkg/types"
)

func decodeEnvelope(t *testing.T, body []byte) types.Envelope {
	t.Helper()
	var env types.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]any{"id": 1}, "Book created")

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decodeEnvelope(t, rec.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, "Book created", env.Message)
	assert.NotNil(t, env.Data)
}

func TestWriteSuccessStatusOmitsEmptyData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, 201, nil, "created")

	assert.Equal(t, 201, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"data"`)
}

func TestWriteErrorBusinessMessagePassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeForbidden, "Member is currently penalized")

	WriteError(context.Background(), nil, rec, err)

	assert.Equal(t, 403, rec.Code)
	env := decodeEnvelope(t, rec.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "Member is currently penalized", env.Message)
}

func TestWriteErrorNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeNotFound, "Member or book not found")

	WriteError(context.Background(), nil, rec, err)

	assert.Equal(t, 404, rec.Code)
	env := decodeEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, "Member or book not found", env.Message)
}

func TestWriteErrorInternalHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInternal, "db exploded: password=hunter2")

	WriteError(context.Background(), nil, rec, err)

	assert.Equal(t, 500, rec.Code)
	env := decodeEnvelope(t, rec.Body.Bytes())
	assert.NotContains(t, env.Message, "hunter2")
}

func TestWriteErrorUntypedBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, assert.AnError)

	assert.Equal(t, 500, rec.Code)
	env := decodeEnvelope(t, rec.Body.Bytes())
	assert.False(t, env.Success)
}

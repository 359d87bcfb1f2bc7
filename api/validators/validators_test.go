package validators

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
)

type createPayload struct {
	Title string `json:"title" validate:"required"`
	Stock int    `json:"stock" validate:"gte=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"title":"Dune","stock":2}`))

	var dest createPayload
	require.NoError(t, DecodeJSONBody(r, &dest))
	assert.Equal(t, "Dune", dest.Title)
	assert.Equal(t, 2, dest.Stock)
}

func TestDecodeJSONBodyUnknownField(t *testing.T) {
	r := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"title":"Dune","bogus":true}`))

	var dest createPayload
	err := DecodeJSONBody(r, &dest)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyMissingRequired(t *testing.T) {
	r := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"stock":1}`))

	var dest createPayload
	err := DecodeJSONBody(r, &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["title"])
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=10", nil)

	value, err := ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, value)

	value, err = ParseQueryInt(r, "missing", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, value)

	r = httptest.NewRequest("GET", "/?limit=banana", nil)
	_, err = ParseQueryInt(r, "limit", 25, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	r = httptest.NewRequest("GET", "/?limit=9000", nil)
	_, err = ParseQueryInt(r, "limit", 25, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestParseIDParam(t *testing.T) {
	id, err := ParseIDParam("42", "bookId")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ParseIDParam("0", "bookId")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = ParseIDParam("abc", "bookId")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

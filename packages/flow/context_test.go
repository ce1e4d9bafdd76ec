package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupTopLevel(t *testing.T) {
	ctx := NewContext()
	ctx.Save("token", "abc")

	v, ok := ctx.Lookup("token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestLookupNestedMap(t *testing.T) {
	ctx := NewContext()
	ctx.Save("user", map[string]any{
		"profile": map[string]any{"email": "ada@example.com"},
	})

	v, ok := ctx.Lookup("user.profile.email")
	assert.True(t, ok)
	assert.Equal(t, "ada@example.com", v)
}

func TestLookupArrayIndex(t *testing.T) {
	ctx := NewContext()
	ctx.Save("items", []any{
		map[string]any{"id": float64(1)},
		map[string]any{"id": float64(2)},
	})

	v, ok := ctx.Lookup("items.1.id")
	assert.True(t, ok)
	assert.Equal(t, float64(2), v)

	_, ok = ctx.Lookup("items.5.id")
	assert.False(t, ok)
}

func TestLookupMissing(t *testing.T) {
	ctx := NewContext()
	ctx.Save("user", map[string]any{"id": float64(1)})

	_, ok := ctx.Lookup("nope")
	assert.False(t, ok)

	_, ok = ctx.Lookup("user.nope")
	assert.False(t, ok)

	_, ok = ctx.Lookup("user.id.deeper")
	assert.False(t, ok)
}

func TestLookupNilValue(t *testing.T) {
	ctx := NewContext()
	ctx.Save("user", map[string]any{"middle": nil})

	_, ok := ctx.Lookup("user.middle")
	assert.False(t, ok)
}

func TestLookupEnvelope(t *testing.T) {
	ctx := NewContext()
	ctx.Save("login", &Envelope{
		Body:    map[string]any{"token": "xyz"},
		Headers: map[string]string{"X-Request-Id": "req-7"},
		Status:  201,
	})

	v, ok := ctx.Lookup("login.body.token")
	assert.True(t, ok)
	assert.Equal(t, "xyz", v)

	v, ok = ctx.Lookup("login.headers.X-Request-Id")
	assert.True(t, ok)
	assert.Equal(t, "req-7", v)

	v, ok = ctx.Lookup("login.status")
	assert.True(t, ok)
	assert.Equal(t, 201, v)

	_, ok = ctx.Lookup("login.cookies")
	assert.False(t, ok)
}

func TestGetStopOnFailureDefault(t *testing.T) {
	s := &Step{}
	assert.True(t, s.GetStopOnFailure())

	s.StopOnFailure = BoolPtr(false)
	assert.False(t, s.GetStopOnFailure())
}

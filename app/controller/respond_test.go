package controller

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// brokenWriter fails every write, like a client that went away
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (w brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestNDJSONWriter_SkipsUnencodableLineAndKeepsStreaming(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	stream := newNDJSONWriter(rec, "test")

	require.True(t, stream.Send(map[string]int{"n": 1}))
	require.False(t, stream.Send(map[string]any{"bad": func() {}}))
	require.True(t, stream.Send(map[string]int{"n": 2}))

	require.Equal(t, "{\"n\":1}\n{\"n\":2}\n", rec.Body.String())
	require.True(t, rec.Flushed)
}

func TestNDJSONWriter_StopsAfterFailedWrite(t *testing.T) {
	t.Parallel()
	var w http.ResponseWriter = brokenWriter{httptest.NewRecorder()}
	stream := newNDJSONWriter(w, "test")

	require.False(t, stream.Send(map[string]int{"n": 1}))
	require.False(t, stream.connected)
	require.False(t, stream.Send(map[string]int{"n": 2}))
}

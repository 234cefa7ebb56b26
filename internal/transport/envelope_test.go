package transport

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryEnvelopeRoundTrip(t *testing.T) {
	e := &Envelope{ID: 42, Type: "cell_set", Payload: []byte{1, 2, 3, 4}}
	var buf bytes.Buffer
	require.NoError(t, e.Encode(&buf))

	got, err := DecodeEnvelope(&buf)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Type, got.Type)
	assert.Equal(t, e.Payload, got.Payload)
}

func TestBinaryEnvelopeEmptyPayload(t *testing.T) {
	e := &Envelope{ID: 0, Type: "sim_pause"}
	var buf bytes.Buffer
	require.NoError(t, e.Encode(&buf))

	got, err := DecodeEnvelope(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.ID)
	assert.Equal(t, "sim_pause", got.Type)
	assert.Empty(t, got.Payload)
}

func TestBinaryEnvelopeRejectsOversizedPayload(t *testing.T) {
	e := &Envelope{ID: 1, Type: "x", Payload: make([]byte, MaxPayloadSize+1)}
	var buf bytes.Buffer
	assert.Error(t, e.Encode(&buf))
}

func TestJSONEnvelopeRoundTrip(t *testing.T) {
	x, _ := json.Marshal(5)
	y, _ := json.Marshal(7)
	e := &JSONEnvelope{ID: 3, Command: "cell_set", Fields: map[string]json.RawMessage{"x": x, "y": y}}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var got JSONEnvelope
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, uint64(3), got.ID)
	assert.Equal(t, "cell_set", got.Command)
	assert.Equal(t, x, got.Fields["x"])
	assert.Equal(t, y, got.Fields["y"])
}

func TestJSONEnvelopeErrorResponse(t *testing.T) {
	e := &JSONEnvelope{ID: 9, Type: "cell_set_response", Error: "Invalid coordinates (5, 5)"}
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var got JSONEnvelope
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Invalid coordinates (5, 5)", got.Error)
	assert.Equal(t, "cell_set_response", got.Type)
}

func TestJSONEnvelopeMalformedInput(t *testing.T) {
	var got JSONEnvelope
	err := json.Unmarshal([]byte("not valid json"), &got)
	assert.Error(t, err)
}

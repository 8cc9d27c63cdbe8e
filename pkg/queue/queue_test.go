package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeWithID(t *testing.T) {
	raw := []byte(`{"id":"job-1","payload":{"symbol":"PEPE"}}`)
	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, "job-1", env.ID)
	require.JSONEq(t, `{"symbol":"PEPE"}`, string(env.Payload))
}

func TestDecodeEnvelopeBarePayload(t *testing.T) {
	// Loose producers append the payload directly with no wrapper.
	raw := []byte(`{"symbol":"DOGE","sources":["tw"]}`)
	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	require.Empty(t, env.ID)
	require.JSONEq(t, string(raw), string(env.Payload))
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{not json`))
	require.Error(t, err)
}

func TestConfigDefaultsAndPolicy(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	require.Equal(t, 1, cfg.Workers)
	require.Equal(t, 3, cfg.RetryLimit)
	require.Equal(t, 5*time.Second, cfg.RetryDelay)

	p := cfg.Policy()
	// Three total attempts, then dead-letter: no fourth attempt.
	require.True(t, p.Allow(1))
	require.True(t, p.Allow(2))
	require.False(t, p.Allow(3))
	require.Equal(t, 5*time.Second, p.Delay(1))
	require.Equal(t, 10*time.Second, p.Delay(2))
}

type payloadDoc struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

func TestParsePayloadRawMessage(t *testing.T) {
	got, err := ParsePayload[payloadDoc](json.RawMessage(`{"symbol":"WIF","count":2}`))
	require.NoError(t, err)
	require.Equal(t, "WIF", got.Symbol)
	require.Equal(t, 2, got.Count)
}

func TestParsePayloadMap(t *testing.T) {
	got, err := ParsePayload[payloadDoc](map[string]interface{}{"symbol": "WIF", "count": float64(2)})
	require.NoError(t, err)
	require.Equal(t, "WIF", got.Symbol)
}

func TestParsePayloadTyped(t *testing.T) {
	in := payloadDoc{Symbol: "BONK"}
	got, err := ParsePayload[payloadDoc](in)
	require.NoError(t, err)
	require.Equal(t, "BONK", got.Symbol)

	ptr, err := ParsePayload[payloadDoc](&in)
	require.NoError(t, err)
	require.Same(t, &in, ptr)
}

func TestParsePayloadInvalid(t *testing.T) {
	_, err := ParsePayload[payloadDoc](42)
	require.Error(t, err)
}

func TestNormalizePayloadRoundTrip(t *testing.T) {
	norm := normalizePayload(map[string]interface{}{"symbol": "PEPE"})
	raw, ok := norm.(json.RawMessage)
	require.True(t, ok)

	got, err := ParsePayload[payloadDoc](raw)
	require.NoError(t, err)
	require.Equal(t, "PEPE", got.Symbol)
}

func TestMessageWireFormat(t *testing.T) {
	msg := Message{ID: "abc", Queue: "parser-run", Type: "parser:run", Payload: json.RawMessage(`{"x":1}`)}
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	require.Contains(t, string(b), `"type":"parser:run"`)
	require.Contains(t, string(b), `"data":{"x":1}`)
}

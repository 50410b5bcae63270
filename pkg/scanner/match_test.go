package scanner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeContent(t *testing.T) {
	t.Run("json object", func(t *testing.T) {
		c := DecodeContent(`{"level":"error","msg":"boom"}`)
		require.True(t, c.IsStructured())
		m, ok := c.Value().(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "error", m["level"])
	})

	t.Run("json array", func(t *testing.T) {
		c := DecodeContent(`[1, 2, 3]`)
		assert.True(t, c.IsStructured())
	})

	t.Run("leading whitespace", func(t *testing.T) {
		c := DecodeContent(`   {"a":1}`)
		assert.True(t, c.IsStructured())
	})

	t.Run("plain text", func(t *testing.T) {
		c := DecodeContent("ERROR connection refused")
		assert.False(t, c.IsStructured())
		assert.Equal(t, "ERROR connection refused", c.String())
	})

	t.Run("truncated json stays text", func(t *testing.T) {
		c := DecodeContent(`{"level":"error",`)
		assert.False(t, c.IsStructured())
	})

	t.Run("empty", func(t *testing.T) {
		c := DecodeContent("")
		assert.False(t, c.IsStructured())
		assert.Equal(t, "", c.String())
	})
}

func TestContentJSONRoundTrip(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		m := Match{Service: "auth", FilePath: "/l/a.log", LineNumber: 7, Content: DecodeContent(`{"msg":"x"}`)}

		data, err := json.Marshal(m)
		require.NoError(t, err)
		// The structured payload is embedded as JSON, not a quoted string.
		assert.Contains(t, string(data), `"content":{"msg":"x"}`)

		var back Match
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, back.Content.IsStructured())
		assert.Equal(t, m.Service, back.Service)
		assert.Equal(t, m.LineNumber, back.LineNumber)
	})

	t.Run("plain text", func(t *testing.T) {
		m := Match{Service: "auth", FilePath: "/l/a.log", LineNumber: 1, Content: StringContent("plain line")}

		data, err := json.Marshal(m)
		require.NoError(t, err)

		var back Match
		require.NoError(t, json.Unmarshal(data, &back))
		assert.False(t, back.Content.IsStructured())
		assert.Equal(t, "plain line", back.Content.String())
	})
}

func TestContentString(t *testing.T) {
	assert.Equal(t, `{"a":1}`, DecodeContent(`{"a":1}`).String())
	assert.Equal(t, "hello", StringContent("hello").String())
}

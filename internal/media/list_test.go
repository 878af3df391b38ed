package media

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"nil", nil, []string{}},
		{"legacy single url", "single-url", []string{"single-url"}},
		{"json array text", `["a","b"]`, []string{"a", "b"}},
		{"not json", "not json", []string{}},
		{"truncated json", `["a",`, []string{}},
		{"empty string", "", []string{}},
		{"json null", "null", []string{}},
		{"json object", `{"url":"a"}`, []string{}},
		{"json string", `"v.mp4"`, []string{"v.mp4"}},
		{"mixed element types", `["a", 3, null, "", "b"]`, []string{"a", "b"}},
		{"structured strings", []string{"x", "", "y"}, []string{"x", "y"}},
		{"structured any", []any{"x", 1, "y"}, []string{"x", "y"}},
		{"raw message", json.RawMessage(`["r"]`), []string{"r"}},
		{"unsupported type", 42, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeNilPointer(t *testing.T) {
	var column *string
	assert.Empty(t, Normalize(column))
	assert.NotNil(t, Normalize(column))
}

func TestListUnmarshalToleratesCorruptSiblings(t *testing.T) {
	payload := `[
		{"id": 1, "video_urls": "[\"v1.mp4\",\"v2.mp4\"]"},
		{"id": 2, "video_urls": "definitely not json"},
		{"id": 3, "video_urls": ["v3.mp4"]},
		{"id": 4, "video_urls": null},
		{"id": 5, "video_urls": 17}
	]`

	var cards []struct {
		ID        int  `json:"id"`
		VideoURLs List `json:"video_urls"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &cards))
	require.Len(t, cards, 5)

	assert.Equal(t, List{"v1.mp4", "v2.mp4"}, cards[0].VideoURLs)
	assert.Empty(t, cards[1].VideoURLs)
	assert.Equal(t, List{"v3.mp4"}, cards[2].VideoURLs)
	assert.Empty(t, cards[3].VideoURLs)
	assert.Empty(t, cards[4].VideoURLs)
}

func TestListMarshalAlwaysArray(t *testing.T) {
	var empty List
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	assert.Equal(t, "[]", empty.Encode())
	assert.Equal(t, `["a","b"]`, List{"a", "b"}.Encode())
}

func TestParseStoredRoundTrip(t *testing.T) {
	stored := List{"a.mp3", "b.mp3"}.Encode()
	assert.Equal(t, List{"a.mp3", "b.mp3"}, ParseStored(&stored))

	legacy := "https://cdn.example/old.mp3"
	assert.Equal(t, List{legacy}, ParseStored(&legacy))
}

func TestParseLines(t *testing.T) {
	assert.Equal(t, List{"a.mp4", "b.mp4"}, ParseLines("a.mp4\r\n\n  b.mp4  \n"))
	assert.Nil(t, ParseLines("  \n"))
}

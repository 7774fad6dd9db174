package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```  ", "{\"a\":1}"},
		{"```{\"a\":1}```", "{\"a\":1}"},
		{"  plain text  ", "plain text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripFences(tt.in), tt.in)
	}
}

func TestExtractObject(t *testing.T) {
	got, ok := extractObject("Sure! ```json\n{\"won\": true}\n``` Hope that helps.")
	assert.True(t, ok)
	assert.Equal(t, `{"won": true}`, got)

	_, ok = extractObject("no braces here")
	assert.False(t, ok)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Tell me more.", cleanText(`"Tell me more."`))
	assert.Equal(t, "Tell me more.", cleanText("Prospect: Tell me more."))
	assert.Equal(t, "", cleanText("``` ```"))
}

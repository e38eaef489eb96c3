package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{
			genai.Text("tomatoes, "),
			genai.Blob{MIMEType: "image/png", Data: []byte{1}},
			genai.Text("basil"),
		}},
	}}}

	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "tomatoes, basil", text)
}

func TestResponseText_Empty(t *testing.T) {
	tests := map[string]*genai.GenerateContentResponse{
		"nil response":  nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{}}},
		"no text parts": {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{}}}}}},
	}
	for name, resp := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := responseText(resp)
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

package core

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"Nil response", nil, ""},
		{"No candidates", &genai.GenerateContentResponse{}, ""},
		{"Candidate without content", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{}},
		}, ""},
		{"Text parts are joined", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("1. Alien\n"), genai.Text("2. Heat")}},
			}},
		}, "1. Alien\n2. Heat"},
		{"Non-text parts are skipped", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("only text")}},
			}},
		}, "only text"},
		{"Only the first candidate counts", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("first")}}},
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("second")}}},
			},
		}, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responseText(tt.resp))
		})
	}
}

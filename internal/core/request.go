package core

import (
	"errors"
	"strings"

	"cinestream.app/cinebot/internal/locale"
)

var ErrEmptyInput = errors.New("message content cannot be empty")

// Request is what gets sent to the text-generation backend for one user turn.
type Request struct {
	Locale      locale.Locale
	Instruction string
	Content     string
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// BuildRequest pairs the verbatim user text with the locale's system
// instruction. Blank text yields ErrEmptyInput and no request.
func BuildRequest(userText string, l locale.Locale) (Request, error) {
	if isBlank(userText) {
		return Request{}, ErrEmptyInput
	}
	return Request{
		Locale:      l,
		Instruction: locale.For(l).Instruction,
		Content:     userText,
	}, nil
}

// Package tokenizer provides token counting for prompt-size budgeting.
// Counts produced here are for local estimation only (context assembly,
// metrics); billed usage always comes from provider-reported numbers.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens in text.
type Tokenizer interface {
	CountTokens(text string) (int, error)
}

// TiktokenTokenizer adapts tiktoken encodings to the Tokenizer interface.
// The encoding is initialized lazily because tiktoken may download data on
// first use.
type TiktokenTokenizer struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// New creates a tokenizer for the given model. Unknown models (including the
// Claude family, which has no public tokenizer) fall back to cl100k_base,
// which is close enough for budgeting purposes.
func New(model string) *TiktokenTokenizer {
	encoding := "cl100k_base"
	if enc, ok := modelEncodings[model]; ok {
		encoding = enc
	} else {
		for prefix, enc := range modelEncodings {
			if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
				encoding = enc
				break
			}
		}
	}
	return &TiktokenTokenizer{model: model, encoding: encoding}
}

func (t *TiktokenTokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens returns the token count of text under the model's encoding.
func (t *TiktokenTokenizer) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// Model returns the model this tokenizer was built for.
func (t *TiktokenTokenizer) Model() string { return t.model }

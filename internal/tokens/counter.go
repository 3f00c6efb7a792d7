// Package tokens sizes transcript text for context budgeting. The codec
// counter uses tiktoken's cl100k_base encoding; a character-ratio
// estimator stands in when no codec is available.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Counter reports the token length of text and whether the number is an
// estimate rather than a true codec count.
type Counter interface {
	Count(text string) (n int, estimated bool)
}

// NewCounter returns the codec counter when the encoding loads and the
// estimator otherwise.
func NewCounter() Counter {
	if c, err := NewCodecCounter(); err == nil {
		return c
	}
	return NewEstimator()
}

// CodecCounter counts with a real BPE codec. The agent backend does not
// expose its tokenizer, so cl100k_base serves as a close stand-in for
// budgeting purposes.
type CodecCounter struct {
	codec tokenizer.Codec
}

// NewCodecCounter loads the cl100k_base encoding.
func NewCodecCounter() (*CodecCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	return &CodecCounter{codec: codec}, nil
}

// Count encodes text and returns the token count.
func (c *CodecCounter) Count(text string) (int, bool) {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return estimate(text, defaultCharsPerToken), true
	}
	return len(ids), false
}

const defaultCharsPerToken = 4.0

// Estimator approximates token counts from character length.
type Estimator struct {
	// CharsPerToken is the average characters per token.
	CharsPerToken float64
}

// NewEstimator creates an estimator with the default ratio.
func NewEstimator() *Estimator {
	return &Estimator{CharsPerToken: defaultCharsPerToken}
}

// Count estimates the token count; the result is always flagged as an
// estimate.
func (e *Estimator) Count(text string) (int, bool) {
	ratio := e.CharsPerToken
	if ratio <= 0 {
		ratio = defaultCharsPerToken
	}
	return estimate(text, ratio), true
}

func estimate(text string, charsPerToken float64) int {
	return int(float64(len(text)) / charsPerToken)
}

package parser

import (
	"encoding/json"
	"strings"
)

// MessageContent models the envelope schema's message.content field,
// which is either a plain string or an array of typed blocks depending on
// the tool version. Decoding attempts the string form first, then the
// block sequence; anything else is left empty rather than failing the
// whole record.
type MessageContent struct {
	text   string
	blocks []ContentBlock
}

// ContentBlock is one element of the block-sequence content form.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.text = s
		c.blocks = nil
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err == nil {
		c.text = ""
		c.blocks = blocks
		return nil
	}
	// Unknown content shape: ignore, the usage payload is what matters.
	c.text = ""
	c.blocks = nil
	return nil
}

// Text flattens the content to plain text.
func (c MessageContent) Text() string {
	if c.text != "" {
		return c.text
	}
	var parts []string
	for _, b := range c.blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// isAPIError reports whether the content is a synthetic API-error record
// emitted by the CLI. Those carry no real usage and are skipped.
func (c MessageContent) isAPIError() bool {
	return strings.HasPrefix(c.Text(), "API Error")
}

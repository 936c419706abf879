package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"stratdsl/ir"
)

// ExtractFirstJSONValue pulls the first JSON value out of free-form model
// output, tolerating markdown fences and prose around it.
func ExtractFirstJSONValue(text string) (json.RawMessage, error) {
	b := []byte(text)
	start := bytes.IndexAny(b, "{[")
	if start < 0 {
		return nil, fmt.Errorf("no json start found")
	}

	dec := json.NewDecoder(bytes.NewReader(b[start:]))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-marshal json: %w", err)
	}
	return out, nil
}

// ExtractStrategy asks the model to translate a natural-language rule and
// validates the result against the strategy schema.
func (c *Client) ExtractStrategy(ctx context.Context, rule string) (*ir.StrategyJSON, error) {
	content, err := c.Chat(ctx, SystemStrategyJSON(), UserStrategyPrompt(rule))
	if err != nil {
		return nil, err
	}
	raw, err := ExtractFirstJSONValue(content)
	if err != nil {
		return nil, fmt.Errorf("model output: %w", err)
	}
	s, err := ir.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("model output: %w", err)
	}
	return s, nil
}

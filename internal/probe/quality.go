package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
)

// minQualityPayloadBytes rejects trivially short completion payloads even
// when they are schema-valid.
const minQualityPayloadBytes = 24

// completionSchema describes the minimum shape a completion-style response
// must have to count as a correct answer.
const completionSchema = `{
	"type": "object",
	"required": ["choices"],
	"properties": {
		"choices": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["message"],
				"properties": {
					"message": {
						"type": "object",
						"required": ["content"],
						"properties": {
							"content": {"type": "string", "minLength": 1}
						}
					}
				}
			}
		}
	}
}`

// qualityCheck issues a heavier completion request and inspects the payload
// shape and length instead of just the status.
type qualityCheck struct {
	backend contracts.ProbeBackend
	schema  *gojsonschema.Schema
}

func newQualityCheck(backend contracts.ProbeBackend) (*qualityCheck, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(completionSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion schema: %w", err)
	}
	return &qualityCheck{backend: backend, schema: schema}, nil
}

func (c *qualityCheck) Probe(ctx context.Context, target domain.Target) (map[string]any, error) {
	obs, err := c.backend.Execute(ctx, target, domain.ProbeSpec{
		Kind:      domain.ProbeRequestCompletion,
		Prompt:    "Reply with one short sentence describing what you are.",
		MaxTokens: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("quality probe failed: %w", err)
	}
	if !obs.OK() {
		return nil, fmt.Errorf("quality probe answered status %d", obs.StatusCode)
	}
	if len(obs.Payload) < minQualityPayloadBytes {
		return nil, fmt.Errorf("quality probe payload too short: %d bytes", len(obs.Payload))
	}

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(obs.Payload))
	if err != nil {
		return nil, fmt.Errorf("quality probe payload is not valid JSON: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return nil, fmt.Errorf("quality probe payload failed schema validation: %s", strings.Join(issues, "; "))
	}

	return map[string]any{
		"statusCode":   obs.StatusCode,
		"payloadBytes": len(obs.Payload),
	}, nil
}

package analysis

import (
	"fmt"
	"strings"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

// Schemas check value types only. Missing fields are filled in during
// normalization, so nothing is required beyond the top-level object.

const stringList = `{"type": ["array", "null"], "items": {"type": ["string", "null"]}}`

const optString = `{"type": ["string", "null"]}`

var schemaSources = map[domain.Kind]string{
	domain.KindSentiment: `{
		"type": "object",
		"properties": {
			"rating": {"type": "number"},
			"confidence": {"type": "number"},
			"insights": ` + stringList + `
		}
	}`,
	domain.KindMarketResearch: `{
		"type": "object",
		"properties": {
			"marketSize": ` + optString + `,
			"growthRate": ` + optString + `,
			"competitorCount": {"type": ["number", "null"]},
			"keyInsights": ` + stringList + `,
			"competitors": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"name": ` + optString + `,
						"type": ` + optString + `,
						"description": ` + optString + `,
						"strength": ` + optString + `,
						"weakness": ` + optString + `
					}
				}
			}
		}
	}`,
	domain.KindProblemAnalysis: `{
		"type": "object",
		"properties": {
			"problems": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"problem": ` + optString + `,
						"description": ` + optString + `,
						"solutions": ` + stringList + `
					}
				}
			}
		}
	}`,
	domain.KindCompetitiveIntelligence: `{
		"type": "object",
		"properties": {
			"swotAnalysis": {
				"type": ["object", "null"],
				"properties": {
					"strengths": ` + stringList + `,
					"weaknesses": ` + stringList + `,
					"opportunities": ` + stringList + `,
					"threats": ` + stringList + `
				}
			},
			"marketPosition": ` + optString + `,
			"differentiationStrategy": ` + stringList + `
		}
	}`,
	domain.KindRiskAssessment: `{
		"type": "object",
		"properties": {
			"risks": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"type": ` + optString + `,
						"description": ` + optString + `,
						"probability": ` + optString + `,
						"impact": ` + optString + `,
						"mitigation": ` + optString + `
					}
				}
			},
			"overallRiskLevel": ` + optString + `
		}
	}`,
	domain.KindTechStack: `{
		"type": "object",
		"properties": {
			"recommendations": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"category": ` + optString + `,
						"primary": ` + optString + `,
						"alternatives": ` + stringList + `,
						"reasoning": ` + optString + `
					}
				}
			}
		}
	}`,
	domain.KindPRD: `{
		"type": "object",
		"properties": {
			"sections": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"title": ` + optString + `,
						"content": ` + optString + `
					}
				}
			}
		}
	}`,
	domain.KindWireframe: `{
		"type": "object",
		"properties": {
			"screens": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"name": ` + optString + `,
						"description": ` + optString + `,
						"priority": ` + optString + `
					}
				}
			},
			"designConsiderations": ` + stringList + `,
			"nextSteps": ` + stringList + `
		}
	}`,
}

var schemas = mustCompileSchemas(schemaSources)

func mustCompileSchemas(sources map[domain.Kind]string) map[domain.Kind]*gojsonschema.Schema {
	out := make(map[domain.Kind]*gojsonschema.Schema, len(sources))
	for kind, src := range sources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(fmt.Sprintf("compile %s schema: %v", kind, err))
		}
		out[kind] = s
	}
	return out
}

// SchemaError lists the schema violations of a completion.
type SchemaError struct {
	Errors []string
}

func (e *SchemaError) Error() string {
	return "response does not match schema: " + strings.Join(e.Errors, "; ")
}

// checkSchema validates raw against the schema for kind.
func checkSchema(kind domain.Kind, raw string) error {
	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("no schema for %s", kind)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &SchemaError{Errors: msgs}
	}
	return nil
}

package scores

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Field names of the upstream API.
const (
	BlackSwanField  = "blackSwanScore"
	MarketPeakField = "marketPeakScore"
	ScoreField      = "score"
)

const scoresSchema = `{
	"type": "object",
	"required": ["` + BlackSwanField + `", "` + MarketPeakField + `"],
	"properties": {
		"` + BlackSwanField + `": {"type": "number", "minimum": 0},
		"` + MarketPeakField + `": {"type": "number", "minimum": 0}
	}
}`

const analysisSchema = `{
	"type": "object",
	"required": ["` + ScoreField + `"],
	"properties": {
		"` + ScoreField + `": {"type": "number", "minimum": 0}
	}
}`

func compileSchema(name, data string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(data)); err != nil {
		return nil, fmt.Errorf("can't add %s schema: %w", name, err)
	}
	return compiler.Compile(name)
}

package build

import (
	"encoding/json"
	"fmt"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
)

// Parameter is a named value passed between workflow, tasks, and
// templates.
//
// Value follows the same encoding rule as literal env values: strings
// pass through, anything else is JSON-encoded, non-encodable values
// fail with ErrUnencodableValue.
type Parameter struct {
	Name    string
	Value   any
	Default *string

	// ValueFromPath captures the parameter from a file the task wrote.
	ValueFromPath string

	// GlobalName exports the parameter under workflow scope.
	GlobalName string
}

func (p Parameter) Build() (workflows.Parameter, error) {
	if p.Name == "" {
		return workflows.Parameter{}, fmt.Errorf("%w: parameter name is empty", ErrInvalidName)
	}

	parameter := workflows.Parameter{
		Name:       p.Name,
		Default:    p.Default,
		GlobalName: p.GlobalName,
	}

	if p.ValueFromPath != "" {
		parameter.ValueFrom = &workflows.ValueFrom{Path: p.ValueFromPath}
		return parameter, nil
	}

	if p.Value != nil {
		value, err := encodeValue(p.Value)
		if err != nil {
			return workflows.Parameter{}, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		parameter.Value = &value
	}

	return parameter, nil
}

// encodeValue serializes a literal for the manifest: strings verbatim,
// anything else as JSON.
func encodeValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnencodableValue, err)
	}
	return string(encoded), nil
}

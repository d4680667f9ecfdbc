package ai

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema creates a JSON Schema from the given Go type, suitable
// for structured-output requests to the extraction models.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// UnmarshalFlexible attempts to unmarshal JSON into the target with
// fallback strategies: standard unmarshaling first, then double-encoded
// strings, then a repair pass for malformed model output.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var double string
	if err := json.Unmarshal([]byte(input), &double); err == nil {
		if err := json.Unmarshal([]byte(double), out); err == nil {
			return nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), out)
}

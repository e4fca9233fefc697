package tasks

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed data/task.schema.json
var taskSchemaJSON string

// defaultPrinter formats schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// taskSchema is the compiled JSON Schema for task frontmatter.
var taskSchema *jsonschema.Schema

func init() {
	var schemaDoc any
	if err := json.Unmarshal([]byte(taskSchemaJSON), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded task.schema.json: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("task.schema.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add task.schema.json resource: %v", err))
	}

	sch, err := compiler.Compile("task.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile task.schema.json: %v", err))
	}
	taskSchema = sch
}

// ValidateFrontmatter validates a parsed frontmatter map against the task
// schema and returns one message per violation.
func ValidateFrontmatter(frontmatter map[string]any) []string {
	err := taskSchema.Validate(jsonCompatible(frontmatter))
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// jsonCompatible normalizes YAML-decoded values for schema validation.
// yaml.v3 already decodes mappings to map[string]any; integers stay as-is.
func jsonCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = jsonCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = jsonCompatible(v2)
		}
		return result
	default:
		return val
	}
}

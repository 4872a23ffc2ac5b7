package dtdl

import (
	"encoding/json"
	"fmt"
)

// contentEnvelope is the raw-JSON shape of one `contents[]` entry before
// Kind-specific fields are decoded.
type contentEnvelope struct {
	Type            interface{}       `json:"@type"`
	Name            string            `json:"name"`
	Schema          json.RawMessage   `json:"schema,omitempty"`
	Writable        bool              `json:"writable,omitempty"`
	Target          interface{}       `json:"target,omitempty"`
	MinMultiplicity *int              `json:"minMultiplicity,omitempty"`
	MaxMultiplicity *int              `json:"maxMultiplicity,omitempty"`
	Properties      []contentEnvelope `json:"properties,omitempty"`
	DisplayName     interface{}       `json:"displayName,omitempty"`
	Comment         string            `json:"comment,omitempty"`
}

type interfaceEnvelope struct {
	Context     string            `json:"@context"`
	ID          DTMI              `json:"@id"`
	Type        string            `json:"@type"`
	DisplayName interface{}       `json:"displayName,omitempty"`
	Description interface{}       `json:"description,omitempty"`
	Comment     string            `json:"comment,omitempty"`
	Extends     interface{}       `json:"extends,omitempty"`
	Contents    []contentEnvelope `json:"contents,omitempty"`
}

// ParseError reports a document that failed to parse or whose DTDL shape
// is structurally invalid (missing @id, bad @type, etc). It always carries
// the offending DTMI when one could be recovered.
type ParseError struct {
	DTMI string
	Err  error
}

func (e *ParseError) Error() string {
	if e.DTMI != "" {
		return fmt.Sprintf("dtdl: parsing %s: %v", e.DTMI, e.Err)
	}
	return fmt.Sprintf("dtdl: parsing document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseInterface decodes one DTDL interface document into an Interface AST.
func ParseInterface(doc []byte) (*Interface, error) {
	var env interfaceEnvelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, &ParseError{Err: err}
	}
	if env.ID == "" {
		return nil, &ParseError{Err: fmt.Errorf("missing @id")}
	}
	if env.Type != "Interface" {
		return nil, &ParseError{DTMI: env.ID, Err: fmt.Errorf("@type must be \"Interface\", got %q", env.Type)}
	}

	iface := &Interface{
		Context:     env.Context,
		ID:          env.ID,
		Type:        env.Type,
		DisplayName: env.DisplayName,
		Description: env.Description,
		Comment:     env.Comment,
		Extends:     normalizeStringList(env.Extends),
	}

	contents := make([]Content, 0, len(env.Contents))
	for _, ce := range env.Contents {
		c, err := parseContent(ce)
		if err != nil {
			return nil, &ParseError{DTMI: env.ID, Err: err}
		}
		contents = append(contents, c)
	}
	iface.Contents = contents
	return iface, nil
}

func parseContent(env contentEnvelope) (Content, error) {
	kinds := normalizeStringList(env.Type)
	kind, err := classifyContentKind(kinds)
	if err != nil {
		return Content{}, fmt.Errorf("content %q: %w", env.Name, err)
	}

	c := Content{
		Kind:        kind,
		Name:        env.Name,
		DisplayName: env.DisplayName,
		Comment:     env.Comment,
	}

	switch kind {
	case KindProperty, KindTelemetry:
		if len(env.Schema) == 0 {
			return Content{}, fmt.Errorf("content %q: %s requires a schema", env.Name, kind)
		}
		schema, err := parseSchema(env.Schema)
		if err != nil {
			return Content{}, fmt.Errorf("content %q: %w", env.Name, err)
		}
		c.Schema = schema
		c.Writable = env.Writable

	case KindRelationship:
		targets := normalizeStringList(env.Target)
		if len(targets) > 0 {
			c.Target = targets[0]
		}
		c.MinMultiplicity = env.MinMultiplicity
		c.MaxMultiplicity = env.MaxMultiplicity
		nested := make([]Content, 0, len(env.Properties))
		for _, pe := range env.Properties {
			pc, err := parseContent(pe)
			if err != nil {
				return Content{}, fmt.Errorf("relationship %q: %w", env.Name, err)
			}
			nested = append(nested, pc)
		}
		c.RelProperties = nested

	case KindComponent:
		var schemaDTMI string
		if len(env.Schema) > 0 {
			_ = json.Unmarshal(env.Schema, &schemaDTMI)
		}
		if schemaDTMI == "" {
			return Content{}, fmt.Errorf("content %q: component requires a schema DTMI", env.Name)
		}
		c.ComponentSchema = schemaDTMI
	}

	return c, nil
}

func classifyContentKind(typeTags []string) (ContentKind, error) {
	for _, t := range typeTags {
		switch ContentKind(t) {
		case KindProperty:
			return KindProperty, nil
		case KindRelationship:
			return KindRelationship, nil
		case KindTelemetry:
			return KindTelemetry, nil
		case KindComponent:
			return KindComponent, nil
		}
	}
	return "", fmt.Errorf("unrecognized content @type %v", typeTags)
}

// parseSchema decodes a DTDL schema, which is either a bare JSON string
// naming a primitive, or an object with its own @type discriminator.
func parseSchema(raw json.RawMessage) (*Schema, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if !IsPrimitiveName(asString) {
			return nil, fmt.Errorf("unrecognized primitive schema %q", asString)
		}
		return &Schema{Kind: SchemaPrimitive, Primitive: asString}, nil
	}

	var env struct {
		Type        interface{}       `json:"@type"`
		ValueSchema string            `json:"valueSchema,omitempty"`
		EnumValues  []json.RawMessage `json:"enumValues,omitempty"`
		MapKey      json.RawMessage   `json:"mapKey,omitempty"`
		MapValue    json.RawMessage   `json:"mapValue,omitempty"`
		Fields      []json.RawMessage `json:"fields,omitempty"`
		ElementSchema json.RawMessage `json:"elementSchema,omitempty"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	tags := normalizeStringList(env.Type)
	switch {
	case containsTag(tags, "Enum"):
		schema := &Schema{Kind: SchemaEnum, ValueSchema: env.ValueSchema}
		for _, raw := range env.EnumValues {
			var ev struct {
				Name        string      `json:"name"`
				EnumValue   interface{} `json:"enumValue"`
				DisplayName interface{} `json:"displayName,omitempty"`
			}
			if err := json.Unmarshal(raw, &ev); err != nil {
				return nil, fmt.Errorf("invalid enum value: %w", err)
			}
			schema.EnumValues = append(schema.EnumValues, EnumValue{
				Name: ev.Name, EnumValue: ev.EnumValue, DisplayName: ev.DisplayName,
			})
		}
		return schema, nil

	case containsTag(tags, "Map"):
		var mapKeySchema struct {
			Name   string          `json:"name"`
			Schema json.RawMessage `json:"schema"`
		}
		if len(env.MapKey) > 0 {
			if err := json.Unmarshal(env.MapKey, &mapKeySchema); err != nil {
				return nil, fmt.Errorf("invalid mapKey: %w", err)
			}
		}
		var keySchema *Schema
		if len(mapKeySchema.Schema) > 0 {
			ks, err := parseSchema(mapKeySchema.Schema)
			if err != nil {
				return nil, err
			}
			keySchema = ks
		} else {
			keySchema = &Schema{Kind: SchemaPrimitive, Primitive: PrimitiveString}
		}

		var mapValueSchema struct {
			Name   string          `json:"name"`
			Schema json.RawMessage `json:"schema"`
		}
		if len(env.MapValue) > 0 {
			if err := json.Unmarshal(env.MapValue, &mapValueSchema); err != nil {
				return nil, fmt.Errorf("invalid mapValue: %w", err)
			}
		}
		valueSchema, err := parseSchema(mapValueSchema.Schema)
		if err != nil {
			return nil, fmt.Errorf("invalid mapValue schema: %w", err)
		}
		return &Schema{Kind: SchemaMap, MapKey: keySchema, MapValue: valueSchema}, nil

	case containsTag(tags, "Object"):
		schema := &Schema{Kind: SchemaObject}
		for _, raw := range env.Fields {
			var f struct {
				Name        string          `json:"name"`
				Schema      json.RawMessage `json:"schema"`
				DisplayName interface{}     `json:"displayName,omitempty"`
				Comment     string          `json:"comment,omitempty"`
			}
			if err := json.Unmarshal(raw, &f); err != nil {
				return nil, fmt.Errorf("invalid object field: %w", err)
			}
			fieldSchema, err := parseSchema(f.Schema)
			if err != nil {
				return nil, fmt.Errorf("object field %q: %w", f.Name, err)
			}
			schema.Fields = append(schema.Fields, ObjectField{
				Name: f.Name, Schema: fieldSchema, DisplayName: f.DisplayName, Comment: f.Comment,
			})
		}
		return schema, nil

	case containsTag(tags, "Array"):
		elem, err := parseSchema(env.ElementSchema)
		if err != nil {
			return nil, fmt.Errorf("invalid array elementSchema: %w", err)
		}
		return &Schema{Kind: SchemaArray, ElementSchema: elem}, nil

	default:
		return nil, fmt.Errorf("unrecognized complex schema @type %v", tags)
	}
}

func containsTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

// normalizeStringList coerces a JSON value that is either a bare string or
// an array of strings (DTDL's convention for @type and extends/target) into
// a []string.
func normalizeStringList(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

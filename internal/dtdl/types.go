// Package dtdl implements a parser and schema validator for the Digital
// Twins Definition Language subset this service needs: interfaces, their
// content (property/relationship/telemetry/component) and schemas
// (primitive/enum/map/object/array). There is no teacher analogue for DTDL
// itself; the tagged-variant shape — a shared envelope struct whose
// `@type` field the parse functions switch on to pick the concrete Go
// value — is grounded on semantic/types.go's SemanticAction/SemanticObject
// family, adapted from schema.org's `@type`/`@id` conventions to DTDL's.
package dtdl

import "fmt"

// DTMI is a Digital Twin Model Identifier, e.g. "dtmi:com:example:Thermostat;1".
type DTMI = string

// Interface is a parsed DTDL interface (a Model's dtdlDocument).
type Interface struct {
	Context     string      `json:"@context"`
	ID          DTMI        `json:"@id"`
	Type        string      `json:"@type"`
	DisplayName interface{} `json:"displayName,omitempty"`
	Description interface{} `json:"description,omitempty"`
	Comment     string      `json:"comment,omitempty"`
	Extends     []DTMI      `json:"-"`
	Contents    []Content   `json:"-"`

	rawExtends  interface{}
	rawContents []contentEnvelope
}

// ContentKind discriminates the Content sum type.
type ContentKind string

const (
	KindProperty     ContentKind = "Property"
	KindRelationship ContentKind = "Relationship"
	KindTelemetry    ContentKind = "Telemetry"
	KindComponent    ContentKind = "Component"
)

// Content is one entry of an Interface's `contents` array. Which fields are
// meaningful depends on Kind: Schema for Property/Telemetry, Target/
// MinMultiplicity/MaxMultiplicity/RelProperties for Relationship, ComponentSchema
// for Component.
type Content struct {
	Kind ContentKind
	Name string

	// Property / Telemetry
	Schema   *Schema
	Writable bool

	// Relationship
	Target           DTMI
	MinMultiplicity  *int
	MaxMultiplicity  *int
	RelProperties    []Content // nested property content declared on a relationship

	// Component
	ComponentSchema DTMI

	DisplayName interface{}
	Comment     string
}

// SchemaKind discriminates the Schema sum type.
type SchemaKind string

const (
	SchemaPrimitive SchemaKind = "Primitive"
	SchemaEnum      SchemaKind = "Enum"
	SchemaMap       SchemaKind = "Map"
	SchemaObject    SchemaKind = "Object"
	SchemaArray     SchemaKind = "Array"
)

// Primitive schema names recognized by this subset of DTDL v2/v3.
const (
	PrimitiveString   = "string"
	PrimitiveInteger  = "integer"
	PrimitiveDouble   = "double"
	PrimitiveFloat    = "float"
	PrimitiveBoolean  = "boolean"
	PrimitiveDate     = "date"
	PrimitiveDateTime = "dateTime"
	PrimitiveDuration = "duration"
	PrimitiveLong     = "long"
)

// Schema is a DTDL schema: either a bare primitive name or a complex
// object discriminated by @type.
type Schema struct {
	Kind      SchemaKind
	Primitive string

	// Enum
	ValueSchema string // "integer" or "string"
	EnumValues  []EnumValue

	// Map
	MapKey   *Schema
	MapValue *Schema

	// Object
	Fields []ObjectField

	// Array
	ElementSchema *Schema
}

// EnumValue is one member of an Enum schema.
type EnumValue struct {
	Name        string
	EnumValue   interface{}
	DisplayName interface{}
}

// ObjectField is one field of an Object schema.
type ObjectField struct {
	Name        string
	Schema      *Schema
	DisplayName interface{}
	Comment     string
}

func (k ContentKind) String() string { return string(k) }

func (k SchemaKind) String() string { return string(k) }

// IsPrimitiveName reports whether s names a recognized DTDL primitive schema.
func IsPrimitiveName(s string) bool {
	switch s {
	case PrimitiveString, PrimitiveInteger, PrimitiveDouble, PrimitiveFloat,
		PrimitiveBoolean, PrimitiveDate, PrimitiveDateTime, PrimitiveDuration, PrimitiveLong:
		return true
	default:
		return false
	}
}

func (s *Schema) String() string {
	if s == nil {
		return "<nil schema>"
	}
	switch s.Kind {
	case SchemaPrimitive:
		return s.Primitive
	case SchemaEnum:
		return fmt.Sprintf("enum<%s>", s.ValueSchema)
	case SchemaMap:
		return fmt.Sprintf("map<%s,%s>", s.MapKey, s.MapValue)
	case SchemaObject:
		return "object"
	case SchemaArray:
		return fmt.Sprintf("array<%s>", s.ElementSchema)
	default:
		return "<unknown schema>"
	}
}

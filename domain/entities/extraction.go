package entities

import (
	"bytes"
	"encoding/json"
)

// FieldType is the declared type of an extraction field
type FieldType string

const (
	FieldTypeString  FieldType = "STRING"
	FieldTypeInteger FieldType = "INTEGER"
	FieldTypeBoolean FieldType = "BOOLEAN"
)

// SchemaField describes one named field of the extraction schema
type SchemaField struct {
	Name     string
	Type     FieldType
	Required bool
}

// ExtractionSchema is the declarative description of the structured incident fields
// the model is asked to return through a function call.
type ExtractionSchema struct {
	FunctionName string
	Description  string
	Fields       []SchemaField
}

// IncidentSchema is the fixed schema used by the all-data endpoint
var IncidentSchema = ExtractionSchema{
	FunctionName: "extract_data",
	Description:  "Extracts structured data from an audio transcript of an emergency call.",
	Fields: []SchemaField{
		{Name: "event_info_text", Type: FieldTypeString, Required: true},
		{Name: "event_type", Type: FieldTypeString, Required: true},
		{Name: "event_sub_type", Type: FieldTypeString, Required: true},
		{Name: "state_of_victim", Type: FieldTypeString},
		{Name: "victim_gender", Type: FieldTypeString},
		{Name: "specified_matter", Type: FieldTypeString},
		{Name: "date_reference", Type: FieldTypeString},
		{Name: "injury_type", Type: FieldTypeString},
		{Name: "victim_age", Type: FieldTypeInteger},
		{Name: "object_involved", Type: FieldTypeString},
		{Name: "used_weapons", Type: FieldTypeString},
		{Name: "need_ambulance", Type: FieldTypeBoolean},
		{Name: "children_involved", Type: FieldTypeBoolean},
		{Name: "generated_event_sub_type_detail", Type: FieldTypeString},
	},
}

// FieldNames returns the schema field names in declaration order
func (s ExtractionSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// RequiredFields returns the names of fields the model must always set
func (s ExtractionSchema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// DefaultRecord returns a record holding every schema field set to null.
// Its key set is derived from the schema and never maintained by hand.
func (s ExtractionSchema) DefaultRecord() *ExtractionRecord {
	return &ExtractionRecord{
		fields: s.FieldNames(),
		values: make(map[string]any, len(s.Fields)),
	}
}

// Project overlays the model-provided arguments onto the default record.
// Keys outside the schema are dropped; values are passed through unchecked.
func (s ExtractionSchema) Project(args map[string]any) *ExtractionRecord {
	record := s.DefaultRecord()
	for _, name := range record.fields {
		if v, ok := args[name]; ok {
			record.values[name] = v
		}
	}
	return record
}

// ExtractionRecord is the all-data result: every schema field, null when unset.
// It marshals in schema declaration order.
type ExtractionRecord struct {
	fields []string
	values map[string]any
}

// Get returns the value stored for name and whether name is a schema field
func (r *ExtractionRecord) Get(name string) (any, bool) {
	for _, f := range r.fields {
		if f == name {
			return r.values[name], true
		}
	}
	return nil, false
}

// Keys returns the record's key set in schema order
func (r *ExtractionRecord) Keys() []string {
	keys := make([]string, len(r.fields))
	copy(keys, r.fields)
	return keys
}

// MarshalJSON implements json.Marshaler
func (r *ExtractionRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LocationResult is the location endpoint's success body
type LocationResult struct {
	IncidentLocation string `json:"incident_location"`
}

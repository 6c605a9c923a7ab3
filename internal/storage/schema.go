package storage

import (
	"encoding/json"
	"fmt"
)

// FieldKind describes how a field is stored in the textual SQL engines.
type FieldKind int

const (
	// KindText stores the value as-is in a TEXT column.
	KindText FieldKind = iota
	// KindInteger stores whole numbers.
	KindInteger
	// KindBool stores booleans as 0/1 integers.
	KindBool
	// KindJSON serializes structured values to TEXT and decodes them on read.
	KindJSON
)

// JSONDefault selects the neutral value a JSON field decodes to when the
// stored text is absent or malformed.
type JSONDefault int

const (
	DefaultNull JSONDefault = iota
	DefaultObject
	DefaultArray
)

// Field describes one column of a collection.
type Field struct {
	Name    string
	Kind    FieldKind
	Default JSONDefault // only consulted for KindJSON
}

// Schema is a per-collection descriptor consulted by the generic add/update
// path, replacing hand-written per-collection column mappings.
type Schema struct {
	Name     string
	Singular string
	Fields   []Field
}

// Field returns the descriptor for the named field, if the schema knows it.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Collections enumerates every collection the adapter serves. Column names
// deliberately keep the caller-facing camelCase spelling so records round-trip
// without a renaming layer.
var Collections = map[string]Schema{
	"users": {
		Name:     "users",
		Singular: "user",
		Fields: []Field{
			{Name: "id", Kind: KindText},
			{Name: "name", Kind: KindText},
			{Name: "lastName", Kind: KindText},
			{Name: "phoneNumber", Kind: KindText},
			{Name: "email", Kind: KindText},
			{Name: "sobrietyDate", Kind: KindText},
			{Name: "homeGroups", Kind: KindJSON, Default: DefaultArray},
			{Name: "privacySettings", Kind: KindJSON, Default: DefaultObject},
			{Name: "preferences", Kind: KindJSON, Default: DefaultObject},
			{Name: "sponsor", Kind: KindJSON, Default: DefaultNull},
			{Name: "sponsees", Kind: KindJSON, Default: DefaultArray},
			{Name: "messagingKeys", Kind: KindJSON, Default: DefaultObject},
			{Name: "createdAt", Kind: KindText},
			{Name: "updatedAt", Kind: KindText},
		},
	},
	"activities": {
		Name:     "activities",
		Singular: "activity",
		Fields: []Field{
			{Name: "id", Kind: KindText},
			{Name: "type", Kind: KindText},
			{Name: "duration", Kind: KindInteger},
			{Name: "date", Kind: KindText},
			{Name: "notes", Kind: KindText},
			{Name: "meetingName", Kind: KindText},
			{Name: "meetingId", Kind: KindText},
			{Name: "wasChair", Kind: KindBool},
			{Name: "wasShare", Kind: KindBool},
			{Name: "wasSpeaker", Kind: KindBool},
			{Name: "isSponsorCall", Kind: KindBool},
			{Name: "isSponseeCall", Kind: KindBool},
			{Name: "isAAMemberCall", Kind: KindBool},
			{Name: "callType", Kind: KindText},
			{Name: "location", Kind: KindText},
			{Name: "createdAt", Kind: KindText},
			{Name: "updatedAt", Kind: KindText},
		},
	},
	"meetings": {
		Name:     "meetings",
		Singular: "meeting",
		Fields: []Field{
			{Name: "id", Kind: KindText},
			{Name: "name", Kind: KindText},
			{Name: "days", Kind: KindJSON, Default: DefaultArray},
			{Name: "schedule", Kind: KindJSON, Default: DefaultArray},
			{Name: "address", Kind: KindText},
			{Name: "street", Kind: KindText},
			{Name: "city", Kind: KindText},
			{Name: "state", Kind: KindText},
			{Name: "zip", Kind: KindText},
			{Name: "locationName", Kind: KindText},
			{Name: "coordinates", Kind: KindJSON, Default: DefaultNull},
			{Name: "isHomeGroup", Kind: KindBool},
			{Name: "onlineUrl", Kind: KindText},
			{Name: "createdAt", Kind: KindText},
			{Name: "updatedAt", Kind: KindText},
		},
	},
	"messages": {
		Name:     "messages",
		Singular: "message",
		Fields: []Field{
			{Name: "id", Kind: KindText},
			{Name: "senderId", Kind: KindText},
			{Name: "recipientId", Kind: KindText},
			{Name: "content", Kind: KindText},
			{Name: "encrypted", Kind: KindBool},
			{Name: "timestamp", Kind: KindText},
			{Name: "read", Kind: KindBool},
			{Name: "createdAt", Kind: KindText},
			{Name: "updatedAt", Kind: KindText},
		},
	},
	"preferences": {
		Name:     "preferences",
		Singular: "preference",
		Fields: []Field{
			{Name: "id", Kind: KindText},
			{Name: "value", Kind: KindJSON, Default: DefaultNull},
			{Name: "createdAt", Kind: KindText},
			{Name: "updatedAt", Kind: KindText},
		},
	},
}

// CollectionNames lists collections in schema-declaration order, used when
// issuing CreateTable statements at init.
var CollectionNames = []string{"users", "activities", "meetings", "messages", "preferences"}

// encodeField converts a caller-side value into its engine representation.
func encodeField(f Field, v any) (any, error) {
	if v == nil {
		if f.Kind == KindJSON {
			return "null", nil
		}
		return nil, nil
	}
	switch f.Kind {
	case KindJSON:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Name, err)
		}
		return string(data), nil
	case KindBool:
		b, ok := v.(bool)
		if ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
		// Already numeric (round-tripped through an engine).
		return toInt64(v), nil
	case KindInteger:
		return toInt64(v), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// decodeField converts an engine value back into its caller representation,
// falling back to the field's neutral default on malformed stored text.
func decodeField(f Field, v any) any {
	switch f.Kind {
	case KindJSON:
		s, ok := v.(string)
		if !ok {
			// File-store engine keeps JSON values native.
			if v == nil {
				return jsonDefault(f.Default)
			}
			return v
		}
		if s == "" {
			return jsonDefault(f.Default)
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return jsonDefault(f.Default)
		}
		if out == nil && f.Default != DefaultNull {
			return jsonDefault(f.Default)
		}
		return out
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b
		case nil:
			return false
		default:
			return toInt64(v) != 0
		}
	case KindInteger:
		if v == nil {
			return int64(0)
		}
		return toInt64(v)
	default:
		if v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
}

func jsonDefault(d JSONDefault) any {
	switch d {
	case DefaultObject:
		return map[string]any{}
	case DefaultArray:
		return []any{}
	default:
		return nil
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// decodeRecord converts an engine row back into its caller representation.
// Every schema field appears in the result: absent or NULL values decode to
// their neutral defaults, so both engine families return identical shapes.
func decodeRecord(s Schema, row Record) Record {
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		rec[f.Name] = decodeField(f, row[f.Name])
	}
	return rec
}

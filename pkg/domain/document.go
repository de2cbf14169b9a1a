package domain

import (
	"fmt"
	"strconv"
)

// IDField is the reserved identifier field of every record
const IDField = "_id"

// Record represents a schemaless record stored in a collection
type Record map[string]interface{}

// Document represents the whole stored blob: every collection and its records,
// in insertion order. Revision is an opaque token captured by the backend on
// read and handed back on write; it is empty for backends that do not track
// concurrent writers.
type Document struct {
	Collections map[string][]Record
	Revision    string
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{
		Collections: make(map[string][]Record),
	}
}

// Collection returns the records of a collection, creating it as an empty
// sequence if it has never been referenced.
func (d *Document) Collection(name string) []Record {
	if d.Collections == nil {
		d.Collections = make(map[string][]Record)
	}
	records, exists := d.Collections[name]
	if !exists || records == nil {
		records = []Record{}
		d.Collections[name] = records
	}
	return records
}

// SetCollection replaces the records of a collection
func (d *Document) SetCollection(name string, records []Record) {
	if d.Collections == nil {
		d.Collections = make(map[string][]Record)
	}
	d.Collections[name] = records
}

// FindIndex returns the position of the record with the given identifier
// in a collection, or -1 if it is absent.
func (d *Document) FindIndex(collName, id string) int {
	for i, record := range d.Collection(collName) {
		if recordID, ok := IdentifierOf(record); ok && recordID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	clone := &Document{
		Collections: make(map[string][]Record, len(d.Collections)),
		Revision:    d.Revision,
	}
	for name, records := range d.Collections {
		copied := make([]Record, len(records))
		for i, record := range records {
			copied[i] = record.Clone()
		}
		clone.Collections[name] = copied
	}
	return clone
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return Record(cloneMap(r))
}

// Merge returns a new record with the fields of each patch applied over the
// receiver from left to right. Nested values are not merged.
func (r Record) Merge(patches ...Record) Record {
	merged := make(Record, len(r))
	for k, v := range r {
		merged[k] = v
	}
	for _, patch := range patches {
		for k, v := range patch {
			merged[k] = v
		}
	}
	return merged
}

// IdentifierOf returns the canonical string form of a record's identifier.
// Numeric identifiers decoded from JSON (float64) and from msgpack (int64)
// render the same way, so 23 and "23" address the same record.
func IdentifierOf(record Record) (string, bool) {
	id, exists := record[IDField]
	if !exists || id == nil {
		return "", false
	}

	var idStr string
	switch v := id.(type) {
	case string:
		idStr = v
	case int:
		idStr = strconv.Itoa(v)
	case int8, int16, int32, int64:
		idStr = fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		idStr = fmt.Sprintf("%d", v)
	case float32:
		idStr = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		idStr = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		idStr = fmt.Sprintf("%v", v)
	}

	if idStr == "" {
		return "", false
	}
	return idStr, true
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneMap(val)
	case Record:
		return Record(cloneMap(val))
	case []interface{}:
		copied := make([]interface{}, len(val))
		for i, item := range val {
			copied[i] = cloneValue(item)
		}
		return copied
	default:
		return val
	}
}

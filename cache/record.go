package cache

import (
	"fmt"

	"civic/sdk/models/constants"

	"github.com/mitchellh/mapstructure"
)

// Key is the process-wide identity of a knowledgebase record.
// Two records with the same key always refer to the same remote
// entity, whatever their attribute contents.
type Key struct {
	Type constants.RecordType `json:"type"`
	Id   int                  `json:"id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Type, k.Id)
}

// Record is one knowledgebase entity. Identity (type, id) is
// immutable ; attributes are a raw payload map mutated only through
// Merge. Partial records carry identity only, until a fetch or a
// cache merge completes them.
type Record struct {
	Type       constants.RecordType   `json:"type"`
	Id         int                    `json:"id"`
	Partial    bool                   `json:"partial"`
	Attributes map[string]interface{} `json:"attributes"`
}

func NewPartialRecord(recordType constants.RecordType, id int) *Record {
	return &Record{
		Type:       recordType,
		Id:         id,
		Partial:    true,
		Attributes: map[string]interface{}{},
	}
}

func NewRecord(recordType constants.RecordType, id int, attributes map[string]interface{}) *Record {
	if attributes == nil {
		attributes = map[string]interface{}{}
	}
	return &Record{
		Type:       recordType,
		Id:         id,
		Partial:    false,
		Attributes: attributes,
	}
}

func (r *Record) Key() Key {
	return Key{Type: r.Type, Id: r.Id}
}

// Merge folds a new payload into the record : fields present in the
// payload replace the old values, fields absent from it are left
// untouched. A record never silently downgrades from complete back
// to partial.
func (r *Record) Merge(attributes map[string]interface{}, complete bool) {
	for field, value := range attributes {
		r.Attributes[field] = value
	}
	if complete {
		r.Partial = false
	}
}

// Replace drops all local attribute state in favour of the given
// payload ; used by forced re-fetches.
func (r *Record) Replace(attributes map[string]interface{}) {
	r.Attributes = map[string]interface{}{}
	r.Merge(attributes, true)
}

// Decode projects the raw attribute map onto a typed view struct.
func (r *Record) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(r.Attributes); err != nil {
		return fmt.Errorf("decoding %s : %w", r.Key(), err)
	}
	return nil
}

// -- raw field accessors ; snapshots and live payloads both travel
//    through encoding/json, so numbers show up as float64

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func (r *Record) IntField(field string) (int, bool) {
	return toInt(r.Attributes[field])
}

func (r *Record) StringField(field string) (string, bool) {
	s, ok := r.Attributes[field].(string)
	return s, ok
}

func (r *Record) IntListField(field string) []int {
	raw, ok := r.Attributes[field].([]interface{})
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(raw))
	for _, item := range raw {
		if id, ok := toInt(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

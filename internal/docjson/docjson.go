// Package docjson encodes documents for the drivers that store them as JSON text.
package docjson

import (
	"encoding/json"
	"fmt"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/interfaces"
	"github.com/burugo/modelkit/internal/query"
)

// Marshal encodes a document.
func Marshal(doc interfaces.Document) ([]byte, error) {
	if len(doc) == 0 {
		return nil, common.ErrEmptyDocument
	}
	return json.Marshal(doc)
}

// Unmarshal decodes a stored document. Numbers come back as float64 and times as
// RFC 3339 strings.
func Unmarshal(data []byte) (interfaces.Document, error) {
	var doc interfaces.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// NormalizeQuery gives query values the shape they have in decoded documents, so that
// time.Time and integer conditions compare equal to what was stored.
func NormalizeQuery(q interfaces.Query) (interfaces.Query, error) {
	if err := query.Validate(q); err != nil {
		return nil, err
	}
	if len(q) == 0 {
		return interfaces.Query{}, nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidQuery, err)
	}
	var out interfaces.Query
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidQuery, err)
	}
	return out, nil
}

// IDString returns the identity value of doc as a string, for drivers indexing it.
func IDString(doc interfaces.Document, field string) (string, bool) {
	switch v := doc[field].(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	default:
		return fmt.Sprint(v), true
	}
}

// LookupID returns the identity a query selects by plain equality, if any.
func LookupID(q interfaces.Query, field string) (string, bool) {
	v, ok := q[field]
	if !ok {
		return "", false
	}
	if _, isOps := query.Operators(v); isOps {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

package analysis

import (
	"encoding/json"
	"strconv"

	"insight/pkg/errors"
)

// Record is one normalized result. Providers return differently shaped
// payloads so the map stays open.
type Record map[string]any

// Unit is one element of a caller's input, tagged with its position.
//
// Exactly one payload form is set: Text, Fields (a caller-supplied record),
// or an image as URL and/or Payload.
type Unit struct {
	Ordinal int
	Text    string
	Fields  Record
	URL     string
	Payload []byte
}

// IsStructured reports whether the unit carries a caller record
func (u Unit) IsStructured() bool {
	return u.Fields != nil
}

// IsImage reports whether the unit references image data
func (u Unit) IsImage() bool {
	return u.URL != "" || len(u.Payload) > 0
}

// ID returns the caller-supplied "id" of a structured unit, or the ordinal
// when the unit is plain or carries no id. Ids must be strings or numbers.
func (u Unit) ID() (string, error) {
	if !u.IsStructured() {
		return strconv.Itoa(u.Ordinal), nil
	}
	switch id := u.Fields["id"].(type) {
	case nil:
	case string:
		if id != "" {
			return id, nil
		}
	case json.Number:
		return id.String(), nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	default:
		return "", errors.NewValidationError("id", "must be a string or number", id)
	}
	return strconv.Itoa(u.Ordinal), nil
}

// Content returns the text to analyze. ok is false when a structured unit
// has no string "text" field.
func (u Unit) Content() (text string, ok bool) {
	if !u.IsStructured() {
		return u.Text, true
	}
	text, ok = u.Fields["text"].(string)
	return text, ok
}

// Item is one successful result tagged with the ordinal it answers.
type Item struct {
	Ordinal int
	Record  Record
}

// BatchOutcome is the result of one dispatch. Succeeded keeps provider return
// order. An ordinal appears in at most one of Succeeded and Failed.
type BatchOutcome struct {
	Succeeded []Item
	Failed    []int
}

// Ordinals returns the ordinals of units in order
func Ordinals(units []Unit) []int {
	out := make([]int, len(units))
	for i, u := range units {
		out[i] = u.Ordinal
	}
	return out
}

package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"insight/pkg/errors"
)

// MaxOrdinalKey bounds the keys of an index-keyed mapping. The mapping is
// densified to max(key)+1 units, so an unbounded key would allocate freely.
const MaxOrdinalKey = 9999

// NormalizeText turns caller input into text units with ordinals 0..N-1.
//
// Accepted shapes: a single string, an ordered list of strings and/or records,
// or a mapping whose keys are non-negative decimal integers. Gaps in a mapping
// are filled with empty text.
func NormalizeText(input any) ([]Unit, error) {
	switch v := input.(type) {
	case string:
		return []Unit{{Ordinal: 0, Text: v}}, nil
	case []string:
		units := make([]Unit, len(v))
		for i, s := range v {
			units[i] = Unit{Ordinal: i, Text: s}
		}
		return units, nil
	case []any:
		return normalizeList(v)
	case []map[string]any:
		units := make([]Unit, len(v))
		for i, m := range v {
			units[i] = Unit{Ordinal: i, Fields: Record(m)}
		}
		return units, nil
	case []Record:
		units := make([]Unit, len(v))
		for i, m := range v {
			units[i] = Unit{Ordinal: i, Fields: m}
		}
		return units, nil
	case map[string]string:
		list, err := densify(v, "")
		if err != nil {
			return nil, err
		}
		return normalizeList(list)
	case map[string]any:
		list, err := densify(v, any(""))
		if err != nil {
			return nil, err
		}
		return normalizeList(list)
	default:
		return nil, errors.NewInputKindError(input, "")
	}
}

func normalizeList(list []any) ([]Unit, error) {
	units := make([]Unit, len(list))
	for i, elem := range list {
		switch e := elem.(type) {
		case nil:
			units[i] = Unit{Ordinal: i}
		case string:
			units[i] = Unit{Ordinal: i, Text: e}
		case map[string]any:
			units[i] = Unit{Ordinal: i, Fields: Record(e)}
		case Record:
			units[i] = Unit{Ordinal: i, Fields: e}
		default:
			return nil, errors.NewInputKindError(elem, fmt.Sprintf("element at position %d", i))
		}
	}
	return units, nil
}

// densify converts an index-keyed mapping into a list of length max(key)+1.
// Keys are visited in sorted order so the first bad key reported is stable.
func densify[V any](m map[string]V, gap V) ([]any, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	maxKey := -1
	indexed := make(map[int]V, len(m))
	for _, k := range keys {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || strconv.Itoa(n) != k {
			return nil, errors.NewInputKindError(m, fmt.Sprintf("key %q is not a non-negative integer", k))
		}
		if n > MaxOrdinalKey {
			return nil, errors.NewInputKindError(m, fmt.Sprintf("key %q exceeds %d", k, MaxOrdinalKey))
		}
		indexed[n] = m[k]
		if n > maxKey {
			maxKey = n
		}
	}

	list := make([]any, maxKey+1)
	for i := range list {
		if v, ok := indexed[i]; ok {
			list[i] = v
		} else {
			list[i] = gap
		}
	}
	return list, nil
}

// NormalizeImage turns caller input into a single image unit: a URL string,
// raw bytes, or a record. A record's "url" field, when present, becomes the
// unit URL and the record itself is kept as the request body.
func NormalizeImage(input any) (Unit, error) {
	switch v := input.(type) {
	case string:
		if v == "" {
			return Unit{}, errors.NewValidationError("input", "image url is empty", v)
		}
		return Unit{URL: v}, nil
	case []byte:
		if len(v) == 0 {
			return Unit{}, errors.NewValidationError("input", "image payload is empty", len(v))
		}
		return Unit{Payload: v}, nil
	case map[string]any:
		return imageFromRecord(Record(v))
	case Record:
		return imageFromRecord(v)
	default:
		return Unit{}, errors.NewInputKindError(input, "")
	}
}

func imageFromRecord(r Record) (Unit, error) {
	if len(r) == 0 {
		return Unit{}, errors.NewValidationError("input", "image record is empty", r)
	}
	u := Unit{Fields: r}
	if raw, ok := r["url"]; ok {
		url, isString := raw.(string)
		if !isString {
			return Unit{}, errors.NewValidationError("url", "must be a string", raw)
		}
		u.URL = url
	}
	return u, nil
}

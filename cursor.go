package gorelay

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

var _encoder = base64.RawURLEncoding

// ID identifies an entity within its kind.
type ID = int64

// Cursor is an opaque position inside one connection: the entity kind, the
// sort key the connection was ordered by, the entity id and the value of the
// sort field for that entity.
//
// Cursors are values. Build them with NewCursor, serialize them with String
// and read them back with DecodeCursor. Callers outside this package must
// only round-trip strings previously issued by String.
type Cursor struct {
	Kind      string
	SortKey   string
	ID        ID
	SortValue any
}

// cursorPayload is the wire representation of a Cursor.
type cursorPayload struct {
	Kind      string `json:"k"`
	SortKey   string `json:"s"`
	ID        ID     `json:"i"`
	SortValue any    `json:"v"`
	// ValueType tags sort values that JSON cannot tell apart from a string.
	ValueType string `json:"t,omitempty"`
}

// valueTypeTime marks a sort value encoded as RFC 3339 text.
const valueTypeTime = "time"

func NewCursor(kind string, id ID, sortKey string, sortValue any) *Cursor {
	return &Cursor{
		Kind:      kind,
		SortKey:   sortKey,
		ID:        id,
		SortValue: normalizeSortValue(sortValue),
	}
}

// DecodeCursor parses a string produced by Cursor.String. An empty string
// means "no cursor" and yields (nil, nil).
func DecodeCursor(b64String string) (*Cursor, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 encoded cursor: %v", ErrCursorParse, err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var payload cursorPayload
	if err = dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal json encoded cursor: %v", ErrCursorParse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after cursor", ErrCursorParse)
	}

	if payload.Kind == "" || payload.SortKey == "" {
		return nil, fmt.Errorf("%w: cursor has no kind or sort key", ErrCursorParse)
	}

	sortValue, err := decodeSortValue(payload.SortValue, payload.ValueType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCursorParse, err)
	}

	return &Cursor{
		Kind:      payload.Kind,
		SortKey:   payload.SortKey,
		ID:        payload.ID,
		SortValue: sortValue,
	}, nil
}

// String - implements fmt.Stringer. Returns the opaque token.
func (c *Cursor) String() string {
	if c == nil {
		return ""
	}

	payload := cursorPayload{
		Kind:      c.Kind,
		SortKey:   c.SortKey,
		ID:        c.ID,
		SortValue: c.SortValue,
	}
	if _, ok := c.SortValue.(time.Time); ok {
		payload.ValueType = valueTypeTime
	}

	jTok, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	return _encoder.EncodeToString(jTok)
}

// IsValidFor reports whether the cursor was issued by a connection over the
// given kind sorted by the given key.
func (c *Cursor) IsValidFor(sortKey, kind string) bool {
	return c != nil && c.SortKey == sortKey && c.Kind == kind
}

// MarshalText - implements encoding.TextMarshaler, so cursors embedded in
// results serialize as their opaque token.
func (c *Cursor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText - implements encoding.TextUnmarshaler.
func (c *Cursor) UnmarshalText(text []byte) error {
	decoded, err := DecodeCursor(string(text))
	if err != nil {
		return err
	}

	if decoded == nil {
		*c = Cursor{}
		return nil
	}

	*c = *decoded

	return nil
}

var (
	_ fmt.Stringer = (*Cursor)(nil)
)

// CursorFor decodes raw and returns the cursor only when it belongs to a
// connection over kind sorted by sortKey. Malformed or foreign cursors yield
// nil, which connections treat as "unbounded at that edge".
func CursorFor(raw string, sortKey, kind string) *Cursor {
	cursor, err := DecodeCursor(raw)
	if err != nil || !cursor.IsValidFor(sortKey, kind) {
		return nil
	}

	return cursor
}

// normalizeSortValue maps sort values onto the set of types DecodeCursor
// produces, so a freshly built cursor equals its decoded copy.
func normalizeSortValue(v any) any {
	switch vt := v.(type) {
	case int:
		return int64(vt)
	case int8:
		return int64(vt)
	case int16:
		return int64(vt)
	case int32:
		return int64(vt)
	case uint:
		return uint64ToSortValue(uint64(vt))
	case uint8:
		return int64(vt)
	case uint16:
		return int64(vt)
	case uint32:
		return int64(vt)
	case uint64:
		return uint64ToSortValue(vt)
	case float32:
		return float64(vt)
	case float64:
		if vt == math.Trunc(vt) && math.Abs(vt) < 1<<53 {
			return int64(vt)
		}
		return vt
	case time.Time:
		return vt.UTC().Round(0)
	case *time.Time:
		if vt == nil {
			return nil
		}
		return vt.UTC().Round(0)
	default:
		return v
	}
}

func uint64ToSortValue(v uint64) any {
	if v <= math.MaxInt64 {
		return int64(v)
	}

	return float64(v)
}

func decodeSortValue(v any, valueType string) (any, error) {
	switch valueType {
	case "":
	case valueTypeTime:
		text, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("time sort value must be a string, got %T", v)
		}

		var t time.Time
		if err := t.UnmarshalText([]byte(text)); err != nil {
			return nil, fmt.Errorf("invalid time sort value '%s': %v", text, err)
		}
		return t.UTC(), nil
	default:
		return nil, fmt.Errorf("unknown sort value type '%s'", valueType)
	}

	switch vt := v.(type) {
	case json.Number:
		if i, err := vt.Int64(); err == nil {
			return i, nil
		}
		f, err := vt.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid numeric sort value '%s'", vt)
		}
		return f, nil
	case string, nil, bool:
		return vt, nil
	default:
		return nil, fmt.Errorf("unsupported sort value type %T", v)
	}
}

package encoder

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

var (
	// ErrUnsavedObject is returned when a Pointer or File has no server identity yet.
	ErrUnsavedObject = errors.New("unable to encode an association with an unsaved object")
	// ErrUnsupportedType is returned for values with no JSON representation (channels, funcs, structs, ...).
	ErrUnsupportedType = errors.New("unsupported value type")
	// ErrInvalidNumber is returned for NaN and infinite floats.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrInvalidGeoPoint is returned for coordinates outside the valid range.
	ErrInvalidGeoPoint = errors.New("invalid geo point")
	// ErrCyclicValue is returned when a map, slice or pointer contains itself.
	ErrCyclicValue = errors.New("cyclic value")
)

// dateLayout matches the backend's ISO-8601 millisecond format.
const dateLayout = "2006-01-02T15:04:05.000Z"

// EncodeError reports the location and cause of an encoding failure.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Path == "" {
		return "could not serialize object to JSON: " + e.Err.Error()
	}
	return fmt.Sprintf("could not serialize object to JSON at %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Encoder converts a value into a JSON-compatible form.
type Encoder interface {
	Encode(v any) (any, error)
}

// PointerEncoder encodes object references as pointers. It is stateless and
// safe for concurrent use.
type PointerEncoder struct{}

// NewPointerEncoder returns the default pointer-aware encoder.
func NewPointerEncoder() PointerEncoder {
	return PointerEncoder{}
}

// Encode implements [Encoder].
func (PointerEncoder) Encode(v any) (any, error) {
	st := &encodeState{}
	out, err := st.encodeValue("", v)
	if err != nil {
		var encErr *EncodeError
		if errors.As(err, &encErr) {
			return nil, err
		}
		return nil, &EncodeError{Err: err}
	}
	return out, nil
}

func (st *encodeState) encodeValue(path string, v any) (any, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return value, nil
	case float32:
		return encodeFloat(path, float64(value))
	case float64:
		return encodeFloat(path, value)
	case Pointer:
		return encodePointer(path, value)
	case *Pointer:
		if value == nil {
			return nil, nil
		}
		return encodePointer(path, *value)
	case GeoPoint:
		return encodeGeoPoint(path, value)
	case File:
		if value.Name == "" {
			return nil, &EncodeError{Path: path, Err: ErrUnsavedObject}
		}
		return map[string]any{"__type": "File", "name": value.Name, "url": value.URL}, nil
	case time.Time:
		return map[string]any{"__type": "Date", "iso": value.UTC().Format(dateLayout)}, nil
	case []byte:
		return map[string]any{"__type": "Bytes", "base64": base64.StdEncoding.EncodeToString(value)}, nil
	case map[string]string:
		out := make(map[string]any, len(value))
		for k, s := range value {
			out[k] = s
		}
		return out, nil
	case map[string]any:
		leave, err := st.enter(path, reflect.ValueOf(value))
		if err != nil {
			return nil, err
		}
		defer leave()
		out := make(map[string]any, len(value))
		for k, item := range value {
			encoded, err := st.encodeValue(joinPath(path, k), item)
			if err != nil {
				return nil, err
			}
			out[k] = encoded
		}
		return out, nil
	case []any:
		leave, err := st.enter(path, reflect.ValueOf(value))
		if err != nil {
			return nil, err
		}
		defer leave()
		out := make([]any, len(value))
		for i, item := range value {
			encoded, err := st.encodeValue(indexPath(path, i), item)
			if err != nil {
				return nil, err
			}
			out[i] = encoded
		}
		return out, nil
	}

	return st.encodeReflect(path, reflect.ValueOf(v))
}

func (st *encodeState) encodeReflect(path string, rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		leave, err := st.enter(path, rv)
		if err != nil {
			return nil, err
		}
		defer leave()
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return st.encodeValue(path, rv.Elem().Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &EncodeError{Path: path, Err: fmt.Errorf("%w: map key %s", ErrUnsupportedType, rv.Type().Key())}
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			encoded, err := st.encodeValue(joinPath(path, key), iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[key] = encoded
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			encoded, err := st.encodeValue(indexPath(path, i), rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = encoded
		}
		return out, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return encodeFloat(path, rv.Float())
	}

	return nil, &EncodeError{Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())}
}

// encodeState tracks the maps, slices and pointers on the current path.
type encodeState struct {
	seen map[visit]struct{}
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// enter marks rv as being encoded. The returned func must be called once the
// value is done, so shared but acyclic references still encode.
func (st *encodeState) enter(path string, rv reflect.Value) (func(), error) {
	if rv.IsNil() {
		return func() {}, nil
	}
	v := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		if rv.Len() == 0 {
			return func() {}, nil
		}
		v.len = rv.Len()
	}
	if _, ok := st.seen[v]; ok {
		return nil, &EncodeError{Path: path, Err: ErrCyclicValue}
	}
	if st.seen == nil {
		st.seen = make(map[visit]struct{})
	}
	st.seen[v] = struct{}{}
	return func() { delete(st.seen, v) }, nil
}

func encodeFloat(path string, f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &EncodeError{Path: path, Err: ErrInvalidNumber}
	}
	return f, nil
}

func encodePointer(path string, p Pointer) (any, error) {
	if p.ObjectID == "" {
		return nil, &EncodeError{Path: path, Err: ErrUnsavedObject}
	}
	return map[string]any{
		"__type":    "Pointer",
		"className": p.ClassName,
		"objectId":  p.ObjectID,
	}, nil
}

func encodeGeoPoint(path string, g GeoPoint) (any, error) {
	if g.Latitude < -90 || g.Latitude > 90 || g.Longitude < -180 || g.Longitude > 180 {
		return nil, &EncodeError{Path: path, Err: ErrInvalidGeoPoint}
	}
	return map[string]any{
		"__type":    "GeoPoint",
		"latitude":  g.Latitude,
		"longitude": g.Longitude,
	}, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

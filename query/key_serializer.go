package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// KeySeparator delimits the segments of a serialized key.
const KeySeparator = "::"

// DefaultMaxKeyLength caps serialized key size before the parameter portion
// is replaced by a digest.
const DefaultMaxKeyLength = 512

// KeySerializer builds a deterministic Key from a resource family and the
// request parameters. Structurally equal inputs must always produce the
// same Key.
type KeySerializer interface {
	SerializeKey(family string, args ...any) Key
}

// SerializerOption customizes the default key serializer.
type SerializerOption func(*defaultKeySerializer)

// WithMaxKeyLength changes the length at which keys get digested. Values
// below 1 disable digesting.
func WithMaxKeyLength(n int) SerializerOption {
	return func(s *defaultKeySerializer) { s.maxLen = n }
}

// defaultKeySerializer walks parameter values with reflection and renders
// them into a stable textual form: sorted map keys, exported struct fields
// in declaration order, timestamps in RFC3339Nano, dereferenced pointers.
type defaultKeySerializer struct {
	maxLen int
}

// NewDefaultKeySerializer creates the serializer used throughout the module.
func NewDefaultKeySerializer(opts ...SerializerOption) KeySerializer {
	s := &defaultKeySerializer{maxLen: DefaultMaxKeyLength}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SerializeKey renders family plus args into a Key. The family always stays
// the first plain-text segment so prefix invalidation works even when the
// parameter portion is digested.
func (s *defaultKeySerializer) SerializeKey(family string, args ...any) Key {
	if len(args) == 0 {
		return Key(family)
	}

	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}
	tail := strings.Join(parts, KeySeparator)

	if s.maxLen > 0 && len(family)+len(KeySeparator)+len(tail) > s.maxLen {
		tail = fmt.Sprintf("#%016x", xxhash.Sum64String(tail))
	}

	return Key(family + KeySeparator + tail)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return "time:zero"
		}
		return "time:" + t.UTC().Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(v)
	rt := reflect.TypeOf(v)

	switch rt.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.serializeList("slice", rv)

	case reflect.Array:
		return s.serializeList("array", rv)

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)

	case reflect.Struct:
		return s.serializeStruct(rv, rt)

	case reflect.Interface:
		if rv.IsNil() {
			return "interface:nil"
		}
		return s.serializeValue(rv.Elem().Interface())

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return fmt.Sprintf("%v", v)
	}

	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeList(kind string, rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)
	for i := 0; i < length; i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("%s[%d]:{%s}", kind, length, strings.Join(parts, ","))
}

// serializeMap renders entries sorted by serialized key, which makes the
// output independent of Go's randomized map iteration order.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	keys := rv.MapKeys()

	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, pair{
			k: s.serializeValue(k.Interface()),
			v: s.serializeValue(rv.MapIndex(k).Interface()),
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	rendered := make([]string, len(pairs))
	for i, p := range pairs {
		rendered[i] = p.k + "=" + p.v
	}
	return fmt.Sprintf("map[%d]:{%s}", len(rendered), strings.Join(rendered, ","))
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		value := rv.Field(i)
		if !value.CanInterface() {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeValue(value.Interface()))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// jsonFallback keeps serialization total: a type we cannot walk still yields
// a usable (if opaque) segment instead of a panic.
func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}

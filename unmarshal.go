package vmdl

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Unmarshal parses a VMDL document and stores the result in the value pointed to by v.
// If v is not a pointer to a struct, Unmarshal returns an error.
//
// Unmarshal uses struct tags to determine how to map VMDL keys to struct fields:
//   - `vmdl:"Name"` - maps VMDL key "Name" to this struct field
//   - `vmdl:"Name,required"` - fails if the key is missing
//   - `vmdl:"-"` - ignores this field
//
// Untagged fields match a key equal to the field name, or failing that, one
// that differs only in case.
//
// Example:
//
//	type Config struct {
//	    Project string `vmdl:"Project"`
//	    Port    int    `vmdl:"Port"`
//	    Environments map[string]struct {
//	        Route string `vmdl:"Route"`
//	    } `vmdl:"Environments"`
//	}
func Unmarshal(data []byte, v any) error {
	root, err := Parse(string(data))
	if err != nil {
		return err
	}
	return UnmarshalValue(root, v)
}

// UnmarshalValue stores a parsed tree into v.
func UnmarshalValue(root Value, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("unmarshal target must be a non-nil pointer")
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}

	if !root.IsContainer() {
		return fmt.Errorf("cannot unmarshal %s into struct", root.Kind())
	}
	return unmarshalStruct(root, elem)
}

// unmarshalStruct fills the fields of a struct from a container.
func unmarshalStruct(node Value, v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		tag := field.Tag.Get("vmdl")
		if tag == "-" {
			continue
		}

		name, opts := parseTag(tag)
		explicit := name != ""
		if !explicit {
			name = field.Name
		}

		child, ok := node.Get(name)
		if !ok && !explicit {
			child, ok = lookupFold(node, name)
		}
		if !ok {
			if hasOption(opts, "required") {
				return fmt.Errorf("required field %s not found", name)
			}
			continue
		}

		if err := setField(fieldValue, child); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// lookupFold finds a child whose key matches name case-insensitively.
func lookupFold(node Value, name string) (Value, bool) {
	for _, key := range node.Keys() {
		if strings.EqualFold(key, name) {
			return node.children[key], true
		}
	}
	return Value{}, false
}

// setField stores a Value into a reflect.Value of any supported kind.
func setField(field reflect.Value, value Value) error {
	if field.Type() == durationType {
		return setDuration(field, value)
	}

	switch field.Kind() {
	case reflect.String:
		s, err := leafOf(value)
		if err != nil {
			return err
		}
		field.SetString(s)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloat(field, value)
	case reflect.Bool:
		return setBool(field, value)
	case reflect.Map:
		return setMap(field, value)
	case reflect.Struct:
		if !value.IsContainer() {
			return fmt.Errorf("cannot convert %s to struct", value.Kind())
		}
		return unmarshalStruct(value, field)
	case reflect.Ptr:
		ptr := reflect.New(field.Type().Elem())
		if err := setField(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	case reflect.Interface:
		if field.Type().NumMethod() != 0 {
			return fmt.Errorf("unsupported interface type: %s", field.Type())
		}
		if plain := value.toAny(); plain != nil {
			field.Set(reflect.ValueOf(plain))
		}
		return nil
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
}

func leafOf(value Value) (string, error) {
	s, ok := value.AsString()
	if !ok {
		return "", fmt.Errorf("expected a value, got %s", value.Kind())
	}
	return s, nil
}

func setInt(field reflect.Value, value Value) error {
	s, err := leafOf(value)
	if err != nil {
		return err
	}
	i, err := strconv.ParseInt(s, 10, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("cannot parse as int: %w", err)
	}
	field.SetInt(i)
	return nil
}

func setUint(field reflect.Value, value Value) error {
	s, err := leafOf(value)
	if err != nil {
		return err
	}
	u, err := strconv.ParseUint(s, 10, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("cannot parse as uint: %w", err)
	}
	field.SetUint(u)
	return nil
}

func setFloat(field reflect.Value, value Value) error {
	s, err := leafOf(value)
	if err != nil {
		return err
	}
	f, err := strconv.ParseFloat(s, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("cannot parse as float: %w", err)
	}
	field.SetFloat(f)
	return nil
}

func setBool(field reflect.Value, value Value) error {
	s, err := leafOf(value)
	if err != nil {
		return err
	}
	b, err := parseBool(s)
	if err != nil {
		return fmt.Errorf("cannot parse as bool: %w", err)
	}
	field.SetBool(b)
	return nil
}

func setDuration(field reflect.Value, value Value) error {
	s, err := leafOf(value)
	if err != nil {
		return err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("cannot parse as duration: %w", err)
	}
	field.SetInt(int64(d))
	return nil
}

func setMap(field reflect.Value, value Value) error {
	if field.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("map key must be string, got %s", field.Type().Key())
	}
	children, ok := value.AsContainer()
	if !ok {
		return fmt.Errorf("cannot convert %s to map", value.Kind())
	}

	m := reflect.MakeMapWithSize(field.Type(), len(children))
	for _, key := range value.Keys() {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := setField(elem, children[key]); err != nil {
			return fmt.Errorf("key %s: %w", key, err)
		}
		m.SetMapIndex(reflect.ValueOf(key).Convert(field.Type().Key()), elem)
	}
	field.Set(m)
	return nil
}

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "1", "on":
		return true, nil
	case "false", "no", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value: %s", s)
	}
}

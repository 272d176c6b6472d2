// pkg/model/value.go
package model

import "time"

// Value is one typed cell destined for the staging table. Kind selects which
// of the payload fields is meaningful; Null overrides all of them.
type Value struct {
	Kind FieldType
	Null bool
	Text string
	Num  float64
	Time time.Time
}

// NullValue returns a null of the given type
func NullValue(kind FieldType) Value {
	return Value{Kind: kind, Null: true}
}

// StringValue returns a non-null string value
func StringValue(s string) Value {
	return Value{Kind: FieldString, Text: s}
}

// NumberValue returns a non-null numeric value
func NumberValue(f float64) Value {
	return Value{Kind: FieldNumber, Num: f}
}

// TimestampValue returns a non-null timestamp value
func TimestampValue(t time.Time) Value {
	return Value{Kind: FieldTimestamp, Time: t}
}

// Arg returns the database/sql argument for the value: nil for NULL,
// otherwise the Go value matching the column type.
func (v Value) Arg() interface{} {
	if v.Null {
		return nil
	}
	switch v.Kind {
	case FieldString:
		return v.Text
	case FieldNumber:
		return v.Num
	case FieldTimestamp:
		return v.Time
	default:
		return nil
	}
}

// Row is one transformed source row, positionally aligned with a
// ResolvedSchema. Rows are never mutated after creation.
type Row []Value

// AllNull reports whether every value in the row is null. Such rows are
// discarded before loading and counted as empty.
func (r Row) AllNull() bool {
	for _, v := range r {
		if !v.Null {
			return false
		}
	}
	return true
}

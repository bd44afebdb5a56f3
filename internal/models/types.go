package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func scanTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	}
	return time.Time{}, fmt.Errorf("cannot scan %T into time", value)
}

// invalidValue reports a bad literal as a type error so that encoding/json
// attaches the field name.
func invalidValue(b []byte, v any) error {
	return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(v).Elem()}
}

// Date is a calendar day. It travels as "YYYY-MM-DD" in JSON.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return invalidValue(b, d)
	}
	t, err := parseTime(s)
	if err != nil {
		return invalidValue(b, d)
	}
	*d = NewDate(t)
	return nil
}

// Scan implements the sql.Scanner interface for Date
func (d *Date) Scan(value interface{}) error {
	t, err := scanTime(value)
	if err != nil {
		return err
	}
	if t.IsZero() {
		*d = Date{}
		return nil
	}
	*d = NewDate(t)
	return nil
}

// Value implements the driver.Valuer interface for Date
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return NewDate(d.Time).Time, nil
}

// Timestamp is a point in time rendered as RFC 3339.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return invalidValue(b, t)
	}
	parsed, err := parseTime(s)
	if err != nil {
		return invalidValue(b, t)
	}
	t.Time = parsed
	return nil
}

func (t *Timestamp) Scan(value interface{}) error {
	parsed, err := scanTime(value)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.UTC(), nil
}

// Decimal is a money amount. JSON input may be a number or a numeric string.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return invalidValue(b, d)
	}
	*d = Decimal(f)
	return nil
}

// Scan accepts the representations the supported drivers use for NUMERIC/DECIMAL.
func (d *Decimal) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Decimal(v)
	case int64:
		*d = Decimal(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*d = Decimal(f)
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return err
		}
		*d = Decimal(f)
	default:
		return fmt.Errorf("cannot scan %T into decimal", value)
	}
	return nil
}

func (d Decimal) Value() (driver.Value, error) {
	return float64(d), nil
}

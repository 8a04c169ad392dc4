// Package validation turns raw request bodies into validated entity drafts.
// Each entity validator strips server-owned keys, decodes strictly, applies the
// field schema and then runs the entity's business checks against storage.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Mode selects create or update semantics
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

// Rejection is a validation or business rule outcome returned to the caller
type Rejection struct {
	Message string
	Status  int
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(msg string) *Rejection {
	return &Rejection{Message: msg, Status: http.StatusBadRequest}
}

func forbid(msg string) *Rejection {
	return &Rejection{Message: msg, Status: http.StatusForbidden}
}

// AsRejection extracts a Rejection from err
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Keys that the server owns at every depth of a document
var auditKeys = []string{
	"addUserId", "addDate", "delUserId", "delDate", "active",
	"createdAt", "updatedAt",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// decode strips the denylisted keys, trims strings and strictly decodes raw into dst.
// deep keys are removed at every level, top keys only from the root object.
func decode(raw []byte, dst interface{}, deep []string, top []string) error {
	root, err := parseObject(raw)
	if err != nil {
		return err
	}
	for _, k := range top {
		delete(root, k)
	}
	return decodeObject(root, dst, deep)
}

func parseObject(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, reject(`"value" must be of type object`)
	}
	root, ok := doc.(map[string]interface{})
	if !ok {
		return nil, reject(`"value" must be of type object`)
	}
	return root, nil
}

func decodeObject(root map[string]interface{}, dst interface{}, deep []string) error {
	strip := make(map[string]struct{}, len(deep)+len(auditKeys))
	for _, k := range auditKeys {
		strip[k] = struct{}{}
	}
	for _, k := range deep {
		strip[k] = struct{}{}
	}
	cleaned := scrub(root, strip)

	buf, err := json.Marshal(cleaned)
	if err != nil {
		return fmt.Errorf("failed to re-encode body: %w", err)
	}

	strict := json.NewDecoder(bytes.NewReader(buf))
	strict.DisallowUnknownFields()
	if err := strict.Decode(dst); err != nil {
		return decodeRejection(err)
	}
	return nil
}

// pick keeps only the allowed keys of obj
func pick(obj map[string]interface{}, allowed ...string) {
	keep := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		keep[k] = struct{}{}
	}
	for k := range obj {
		if _, ok := keep[k]; !ok {
			delete(obj, k)
		}
	}
}

func scrub(v interface{}, strip map[string]struct{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			if _, drop := strip[k]; drop {
				delete(t, k)
				continue
			}
			t[k] = scrub(child, strip)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = scrub(t[i], strip)
		}
		return t
	case string:
		return strings.TrimSpace(t)
	default:
		return v
	}
}

func decodeRejection(err error) error {
	msg := err.Error()
	if strings.HasPrefix(msg, "json: unknown field ") {
		return reject(strings.TrimPrefix(msg, "json: unknown field ") + " is not allowed")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if field == "" {
			field = "value"
		}
		kind := kindName(typeErr.Type)
		article := "a"
		if strings.ContainsRune("aeiou", rune(kind[0])) {
			article = "an"
		}
		return reject(fmt.Sprintf("%q must be %s %s", field, article, kind))
	}

	var dateErr *dateError
	if errors.As(err, &dateErr) {
		return reject(`"date" must be a valid date`)
	}
	return reject(`"value" is invalid`)
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	if t == reflect.TypeOf(decimal.Decimal{}) {
		return "number"
	}
	return "object"
}

// check runs the struct tags and converts the first failure into a Rejection
func check(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return reject(fieldMessage(ve[0]))
	}
	return fmt.Errorf("failed to validate input: %w", err)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	isText := fe.Kind() == reflect.String

	switch baseTag(fe.ActualTag()) {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "uuid":
		return fmt.Sprintf("%q must be a valid GUID", field)
	case "min":
		if isText {
			if s, ok := fe.Value().(string); ok && s == "" {
				return fmt.Sprintf("%q is not allowed to be empty", field)
			}
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "max":
		if isText {
			return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%q must be less than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "dive":
		return fmt.Sprintf("%q must be an array", field)
	}
	return fmt.Sprintf("%q is invalid", field)
}

// baseTag reduces an or-group such as "eq=|min=7" to the tag that failed last
func baseTag(tag string) string {
	if i := strings.LastIndex(tag, "|"); i >= 0 {
		tag = tag[i+1:]
	}
	if i := strings.Index(tag, "="); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// requireFields reports the first nil pointer among the named fields
func requireFields(fields ...namedField) error {
	for _, f := range fields {
		if f.missing {
			return reject(fmt.Sprintf("%q is required", f.name))
		}
	}
	return nil
}

type namedField struct {
	name    string
	missing bool
}

func requiredField(name string, present bool) namedField {
	return namedField{name: name, missing: !present}
}

// childID resolves the id of a nested row. Blank and placeholder ids mean a new row.
func childID(raw string) (uuid.UUID, error) {
	if raw == "" || strings.Contains(raw, "new_") {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, reject(`"id" is invalid`)
	}
	return id, nil
}

// refID parses an optional reference. nil and "" both mean no reference.
func refID(raw *string) *uuid.UUID {
	if raw == nil || *raw == "" {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil
	}
	return &id
}

func mustID(raw string) uuid.UUID {
	id, _ := uuid.Parse(raw)
	return id
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setDecimal(dst *decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		*dst = *src
	}
}

func setDate(dst **time.Time, src *Date) {
	if src != nil {
		*dst = src.Ptr()
	}
}

// Date accepts RFC 3339 timestamps and plain calendar dates. An empty string clears the value.
type Date struct {
	time.Time
	Null bool
}

type dateError struct{ value string }

func (e *dateError) Error() string {
	return fmt.Sprintf("invalid date %q", e.value)
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &dateError{value: string(b)}
	}
	if s == "" {
		d.Null = true
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return &dateError{value: s}
}

// Ptr returns nil for a cleared date
func (d *Date) Ptr() *time.Time {
	if d == nil || d.Null {
		return nil
	}
	t := d.Time
	return &t
}

// Settings carries the tunables shared by the validators
type Settings struct {
	BaseCurrency    string
	DefaultTaxPerc  decimal.Decimal
	DuplicateWindow time.Duration
	Now             func() time.Time
}

// DefaultSettings matches the service defaults
func DefaultSettings() Settings {
	return Settings{
		BaseCurrency:    "USD",
		DefaultTaxPerc:  decimal.NewFromFloat(0.16),
		DuplicateWindow: 7 * 24 * time.Hour,
		Now:             time.Now,
	}
}

func (s Settings) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// allMatch evaluates pred for every id concurrently and reports whether all passed
func allMatch(ctx context.Context, ids []uuid.UUID, pred func(ctx context.Context, id uuid.UUID) (bool, error)) (bool, error) {
	results := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			ok, err := pred(gctx, id)
			results[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, ok := range results {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

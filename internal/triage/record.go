package triage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
)

// Defaults applied to records that omit optional fields.
const (
	DefaultPriority   = 4
	DefaultComplexity = scoring.ComplexityMedium
)

// RawTask is the loosely-typed task record supplied by upstream ticket
// sources. Optional fields are pointers so absence can be told apart from
// zero.
type RawTask struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Priority      *int     `json:"priority,omitempty"`
	CreatedAt     *string  `json:"created_at,omitempty"`
	Complexity    string   `json:"complexity,omitempty"`
	Labels        []string `json:"labels,omitempty"`
	BlockingCount *int     `json:"blocking_count,omitempty"`

	// Set by UnmarshalJSON when the record did not decode.
	decodeErr error
	raw       json.RawMessage
}

var (
	// ErrMalformedTimestamp is wrapped by validation errors for created_at
	// values that cannot be parsed.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrMalformedRecord is wrapped by validation errors for records that are
	// not an object or carry a field of the wrong JSON type.
	ErrMalformedRecord = errors.New("malformed record")
)

// UnmarshalJSON decodes one record. A record with a wrongly typed field does
// not fail the enclosing batch: the error is kept and Descriptor reports it
// as a rejection of this record alone. Syntax errors still fail the decode.
func (r *RawTask) UnmarshalJSON(data []byte) error {
	type plain RawTask
	var p plain
	err := json.Unmarshal(data, &p)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return err
	}
	*r = RawTask(p)
	if err == nil && bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		err = fmt.Errorf("%w: record is null", ErrMalformedRecord)
	}
	if err != nil {
		r.decodeErr = err
		r.raw = append(json.RawMessage(nil), data...)
	}
	return nil
}

// recordError describes a record that failed to decode. The offending field
// is named when the decoder reported one.
func (r RawTask) recordError(index int) *ValidationError {
	ve := &ValidationError{Index: index, TaskID: r.ID, Field: "record", Value: string(r.raw)}

	var typeErr *json.UnmarshalTypeError
	if !errors.As(r.decodeErr, &typeErr) {
		ve.Err = r.decodeErr
		if !errors.Is(ve.Err, ErrMalformedRecord) {
			ve.Err = fmt.Errorf("%w: %v", ErrMalformedRecord, r.decodeErr)
		}
		return ve
	}
	if typeErr.Field == "" {
		ve.Err = fmt.Errorf("%w: record is a JSON %s, want object", ErrMalformedRecord, typeErr.Value)
		return ve
	}

	field, _, _ := strings.Cut(typeErr.Field, ".")
	ve.Field = field
	var fields map[string]json.RawMessage
	if json.Unmarshal(r.raw, &fields) == nil {
		if v, ok := fields[field]; ok {
			ve.Value = string(v)
		}
	}
	ve.Err = fmt.Errorf("%w: %s is a JSON %s, want %s", ErrMalformedRecord, field, typeErr.Value, typeErr.Type)
	return ve
}

// ValidationError reports one record that could not be converted.
type ValidationError struct {
	Index  int
	TaskID string
	Field  string
	Value  string
	Err    error
}

// Rejection is the serialisable form of a ValidationError.
type Rejection struct {
	Index  int    `json:"index"`
	TaskID string `json:"task_id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"error"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task %d (%q): %s %q: %v", e.Index, e.TaskID, e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Rejection() Rejection {
	return Rejection{Index: e.Index, TaskID: e.TaskID, Field: e.Field, Value: e.Value, Reason: e.Err.Error()}
}

// BatchError aggregates the validation errors of one batch.
type BatchError struct {
	Errors []*ValidationError
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d tasks rejected: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, ve := range e.Errors {
		out[i] = ve
	}
	return out
}

// Accepted created_at layouts, tried in order. Layouts without a zone are
// read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp in any of the accepted forms.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// Descriptor converts the record into a TaskDescriptor, applying defaults.
// Only a record that failed to decode or a present but unparseable
// created_at fails; an empty string counts as absent.
func (r RawTask) Descriptor(index int) (scoring.TaskDescriptor, error) {
	if r.decodeErr != nil {
		return scoring.TaskDescriptor{}, r.recordError(index)
	}
	d := scoring.TaskDescriptor{
		ID:          r.ID,
		Title:       r.Title,
		RawPriority: DefaultPriority,
		Complexity:  r.Complexity,
		Labels:      r.Labels,
	}
	if r.Priority != nil {
		d.RawPriority = *r.Priority
	}
	if d.Complexity == "" {
		d.Complexity = DefaultComplexity
	}
	if r.BlockingCount != nil && *r.BlockingCount > 0 {
		d.BlockingCount = *r.BlockingCount
	}
	if r.CreatedAt != nil && *r.CreatedAt != "" {
		t, err := ParseTimestamp(*r.CreatedAt)
		if err != nil {
			return scoring.TaskDescriptor{}, &ValidationError{
				Index:  index,
				TaskID: r.ID,
				Field:  "created_at",
				Value:  *r.CreatedAt,
				Err:    err,
			}
		}
		d.CreatedAt = &t
	}
	return d, nil
}

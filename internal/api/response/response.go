// Package response builds the uniform wire envelope every endpoint returns.
// All builders are pure: they construct a fresh Envelope per call and never
// touch shared state beyond the translation bundle's read-only lookups.
package response

import (
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/atelierhq/atelier-api/internal/i18n"
)

// Status values for the envelope discriminator field.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform response shape. Data is nil for errors and
// explicit no-content successes; otherwise it holds either a single-item
// wrapper, an unwrapped payload, or a list with pagination meta.
type Envelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Lang      string `json:"lang"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Item nests a single-resource payload one level, so that single and list
// responses expose the payload under the same "data" field.
type Item struct {
	Data any `json:"data"`
}

// List carries a page of items plus pagination meta.
type List struct {
	Data any             `json:"data"`
	Meta *PaginationMeta `json:"meta"`
}

// PaginationMeta describes the page window of a list response.
// Page is 1-indexed; TotalPages = ceil(total/limit) with limit >= 1
// guaranteed by the caller.
type PaginationMeta struct {
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	IsNextPage bool `json:"isNextPage"`
	IsPrevPage bool `json:"isPrevPage"`
}

// NewPaginationMeta computes the meta block for a page window.
func NewPaginationMeta(total, page, limit int) *PaginationMeta {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return &PaginationMeta{
		Page:       page,
		Total:      total,
		Limit:      limit,
		TotalPages: totalPages,
		IsNextPage: page < totalPages,
		IsPrevPage: page > 1,
	}
}

// SuccessSingle builds a success envelope for a single resource. When wrap
// is true the payload is nested under "data"; callers whose payload is
// itself a structured top-level object (e.g. {user, tokens}) pass false.
// A nil payload yields data:null.
func SuccessSingle(b *i18n.Bundle, data any, message, lang string, wrap bool) *Envelope {
	env := &Envelope{
		Status:    StatusSuccess,
		Message:   resolveMessage(b, message, lang),
		Lang:      lang,
		Timestamp: now(),
	}
	if isNil(data) {
		return env
	}
	if wrap {
		env.Data = &Item{Data: data}
	} else {
		env.Data = data
	}
	return env
}

// SuccessList builds a success envelope for a paginated list. List
// responses are always wrapped as {data, meta}. Caller contract: limit >= 1.
func SuccessList(b *i18n.Bundle, items any, total, page, limit int, message, lang string) *Envelope {
	return &Envelope{
		Status:    StatusSuccess,
		Message:   resolveMessage(b, message, lang),
		Lang:      lang,
		Timestamp: now(),
		Data: &List{
			Data: items,
			Meta: NewPaginationMeta(total, page, limit),
		},
	}
}

// Success is the convenience dispatcher: nil yields an empty success
// envelope, a slice yields a degenerate single-page list, anything else
// defers to SuccessSingle with wrapping.
func Success(b *i18n.Bundle, data any, message, lang string) *Envelope {
	if message == "" {
		message = "common.success"
	}
	if isNil(data) {
		return SuccessSingle(b, nil, message, lang, true)
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		// No pagination context: a single page holding everything.
		return &Envelope{
			Status:    StatusSuccess,
			Message:   resolveMessage(b, message, lang),
			Lang:      lang,
			Timestamp: now(),
			Data: &List{
				Data: data,
				Meta: &PaginationMeta{
					Page:       1,
					Total:      v.Len(),
					Limit:      v.Len(),
					TotalPages: 1,
				},
			},
		}
	}
	return SuccessSingle(b, data, message, lang, true)
}

// Error builds the error envelope: status "error", data always null.
func Error(b *i18n.Bundle, message, lang string) *Envelope {
	return &Envelope{
		Status:    StatusError,
		Message:   resolveMessage(b, message, lang),
		Lang:      lang,
		Timestamp: now(),
	}
}

// LooksLikeKey reports whether a message string should be treated as a
// translation key: it contains a dot and no spaces. Literal prose such as
// "User not found" fails the check and passes through untranslated. A
// dotted literal like "errors.503" is indistinguishable from a key and gets
// looked up; a miss returns it unchanged.
func LooksLikeKey(s string) bool {
	return strings.Contains(s, ".") && !strings.Contains(s, " ")
}

// resolveMessage translates message when it looks like a key; a miss in
// every dictionary returns the key itself, so literal dotted strings also
// pass through unchanged.
func resolveMessage(b *i18n.Bundle, message, lang string) string {
	if LooksLikeKey(message) {
		return b.Translate(message, lang)
	}
	return message
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// isNil reports whether data is nil, including typed nil pointers, slices
// and maps hiding inside a non-nil interface.
func isNil(data any) bool {
	if data == nil {
		return true
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

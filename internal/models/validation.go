package models

import "strings"

// FieldError ties a validation message to the form field that caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned before any store write when input is rejected.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// First returns the first field error, or the zero value when there is none.
func (v ValidationErrors) First() FieldError {
	if len(v) == 0 {
		return FieldError{}
	}
	return v[0]
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

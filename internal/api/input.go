package api

import (
	"net/url"

	"github.com/dharsanguruparan/imggen/internal/common"
	"github.com/dharsanguruparan/imggen/internal/model"
)

// UploadInput is the metadata accompanying an uploaded file.
//
//	purpose              optional, defaults to "attachment" when the field is absent
//	title                optional
//	thread_id / threadId optional, snake_case wins when both are non-empty
type UploadInput struct {
	Purpose  model.Purpose
	Title    string
	ThreadID string
}

// ParseUploadInput reads the metadata fields of an upload form.
func ParseUploadInput(fields url.Values) UploadInput {
	in := UploadInput{Purpose: model.DefaultPurpose}
	if vs, ok := fields["purpose"]; ok && len(vs) > 0 {
		in.Purpose = model.Purpose(vs[0])
	}
	in.Title = fields.Get("title")
	in.ThreadID = fields.Get("thread_id")
	if in.ThreadID == "" {
		in.ThreadID = fields.Get("threadId")
	}
	return in
}

// ValidationError carries a message safe to return to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == common.ErrValidation }

// Validate checks the purpose against the enum.
func (in UploadInput) Validate() error {
	if !in.Purpose.Valid() {
		return &ValidationError{Message: "Invalid purpose. Must be one of: " + model.PurposeList()}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package handler

import (
	"strings"

	"visaflow/internal/extraction"
	"visaflow/internal/flow"
	"visaflow/internal/interview/models"
	"visaflow/internal/requirements"
	dErrors "visaflow/pkg/domain-errors"
)

const (
	maxContextKeys  = 64
	maxReasonLength = 500
	maxDocuments    = 10
)

func validateContext(ctx map[string]any) error {
	if len(ctx) > maxContextKeys {
		return dErrors.New(dErrors.CodeValidation, "context has too many keys")
	}
	for key := range ctx {
		if strings.TrimSpace(key) == "" {
			return dErrors.New(dErrors.CodeValidation, "context keys must not be blank")
		}
	}
	return nil
}

// StartRequest is the optional body of POST /interviews.
type StartRequest struct {
	Context map[string]any `json:"context"`
}

func (r *StartRequest) Validate() error {
	if r == nil {
		return nil
	}
	return validateContext(r.Context)
}

// ContextRequest is the body of PATCH /interviews/{id}/context.
type ContextRequest struct {
	Context map[string]any `json:"context"`
}

func (r *ContextRequest) Validate() error {
	if r == nil || len(r.Context) == 0 {
		return dErrors.New(dErrors.CodeValidation, "context is required")
	}
	return validateContext(r.Context)
}

// CompleteStepRequest is the body of POST /interviews/{id}/steps/complete.
type CompleteStepRequest struct {
	Data map[string]any `json:"data"`
}

func (r *CompleteStepRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return validateContext(r.Data)
}

// SkipStepRequest is the body of POST /interviews/{id}/steps/skip.
type SkipStepRequest struct {
	Reason string `json:"reason"`
}

func (r *SkipStepRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 500 characters")
	}
	return nil
}

// DocumentUpload is one document in POST /interviews/{id}/documents. Content
// is base64 in JSON.
type DocumentUpload struct {
	Category string         `json:"category"`
	FileName string         `json:"file_name"`
	Format   string         `json:"format"`
	Content  []byte         `json:"content,omitempty"`
	Declared map[string]any `json:"declared,omitempty"`
}

type AttachDocumentsRequest struct {
	Documents []DocumentUpload `json:"documents"`

	uploads []extraction.Upload
}

func (r *AttachDocumentsRequest) Validate() error {
	if r == nil || len(r.Documents) == 0 {
		return dErrors.New(dErrors.CodeValidation, "documents are required")
	}
	if len(r.Documents) > maxDocuments {
		return dErrors.New(dErrors.CodeValidation, "at most 10 documents per request")
	}
	r.uploads = make([]extraction.Upload, 0, len(r.Documents))
	for _, d := range r.Documents {
		category := strings.ToLower(strings.TrimSpace(d.Category))
		if category == "" {
			return dErrors.New(dErrors.CodeValidation, "document category is required")
		}
		if len(d.Content) == 0 && len(d.Declared) == 0 {
			return dErrors.New(dErrors.CodeValidation, "document "+category+" has neither content nor declared fields")
		}
		r.uploads = append(r.uploads, extraction.Upload{
			Category: requirements.Code(category),
			FileName: strings.TrimSpace(d.FileName),
			Format:   strings.ToLower(strings.TrimSpace(d.Format)),
			Content:  d.Content,
			Declared: d.Declared,
		})
	}
	return nil
}

// ParsedUploads returns the validated uploads.
func (r *AttachDocumentsRequest) ParsedUploads() []extraction.Upload {
	return r.uploads
}

// ImportRequest is the body of POST /interviews/import: a previous export.
type ImportRequest struct {
	State     *flow.State                             `json:"state"`
	Documents map[requirements.Code]extraction.Result `json:"documents,omitempty"`
}

func (r *ImportRequest) Validate() error {
	if r == nil || r.State == nil {
		return dErrors.New(dErrors.CodeValidation, "state is required")
	}
	return validateContext(r.State.Context)
}

func (r *ImportRequest) Export() models.Export {
	return models.Export{State: *r.State, Documents: r.Documents}
}

package upload

import "fmt"

// RejectReason identifies why a candidate was refused before any expensive work.
type RejectReason int

const (
	// ReasonInvalidType means the declared MIME type is not on the allow-list.
	ReasonInvalidType RejectReason = iota + 1
	// ReasonTooLarge means the payload exceeds the per-file size ceiling.
	ReasonTooLarge
	// ReasonTooManyFiles means the batch exceeds the file-count ceiling.
	ReasonTooManyFiles
)

func (r RejectReason) String() string {
	switch r {
	case ReasonInvalidType:
		return "invalid_type"
	case ReasonTooLarge:
		return "too_large"
	case ReasonTooManyFiles:
		return "too_many_files"
	default:
		return "rejected"
	}
}

// Rejection is the error returned for candidates that fail validation.
type Rejection struct {
	Reason RejectReason
}

func (e *Rejection) Error() string {
	return fmt.Sprintf("upload rejected: %s", e.Reason)
}

// Validate checks one candidate against the policy. Pure: no I/O, no mutation,
// and the same input always yields the same outcome. Runs before the optimizer
// and the store client ever see the bytes.
func Validate(c Candidate, p Policy) error {
	if !p.Allows(c.ContentType) {
		return &Rejection{Reason: ReasonInvalidType}
	}
	if int64(len(c.Data)) > p.MaxFileSizeBytes {
		return &Rejection{Reason: ReasonTooLarge}
	}
	return nil
}

// ValidateBatchSize applies the file-count ceiling once per batch, before any
// per-file validation.
func ValidateBatchSize(n int, p Policy) error {
	if n > p.MaxFilesPerRequest {
		return &Rejection{Reason: ReasonTooManyFiles}
	}
	return nil
}

// Package upload implements the media ingestion pipeline: validation,
// image normalization, concurrent object-store writes, and asset lifecycle.
package upload

// Candidate is a single uploaded file before it has been validated or stored.
// It lives only for the duration of one request.
type Candidate struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Policy is the per-request validation configuration.
type Policy struct {
	AllowedMimeTypes   []string
	MaxFileSizeBytes   int64
	MaxFilesPerRequest int
}

// Allows reports whether the declared content type is on the allow-list.
func (p Policy) Allows(contentType string) bool {
	for _, t := range p.AllowedMimeTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

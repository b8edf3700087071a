package upload

import "github.com/comichub/service/internal/storage"

// FileResult is the outcome for one candidate. Exactly one of Asset or Err is
// set.
type FileResult struct {
	Filename string
	Asset    *storage.Asset
	Err      error
}

// OK reports whether the file was stored (or placeholdered in degraded mode).
func (r FileResult) OK() bool { return r.Err == nil }

// BatchResult aggregates per-file outcomes for one upload request, in the same
// order the files were submitted.
type BatchResult struct {
	Files []FileResult
	// Degraded is set when the object store was unreachable or misconfigured
	// for the whole request and placeholder URLs were substituted. Callers
	// must surface this to the user rather than treating it as real storage.
	Degraded bool
}

// Succeeded counts files that were stored.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, f := range b.Files {
		if f.OK() {
			n++
		}
	}
	return n
}

// Assets returns the stored assets of successful files, preserving submission
// order.
func (b BatchResult) Assets() []storage.Asset {
	out := make([]storage.Asset, 0, len(b.Files))
	for _, f := range b.Files {
		if f.OK() {
			out = append(out, *f.Asset)
		}
	}
	return out
}

// Keys returns the store keys of successful files, preserving submission
// order. Placeholder results in degraded mode have no key and are skipped.
func (b BatchResult) Keys() []string {
	out := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		if f.OK() && f.Asset.Key != "" {
			out = append(out, f.Asset.Key)
		}
	}
	return out
}

// MeetsMinimum reports whether the batch satisfies the owning entity's
// minimum-asset requirement (>=1 for comics, exactly 1 for avatars maps to 1).
func (b BatchResult) MeetsMinimum(min int) bool {
	return b.Succeeded() >= min
}

// FileReport is the user-facing outcome for one file, mapped back to the
// submitted filename.
type FileReport struct {
	Filename string `json:"filename"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Report renders per-file outcomes for API responses, in submission order.
func (b BatchResult) Report() []FileReport {
	out := make([]FileReport, len(b.Files))
	for i, f := range b.Files {
		out[i] = FileReport{Filename: f.Filename, OK: f.OK()}
		if f.Err != nil {
			out[i].Error = f.Err.Error()
		} else if f.Asset != nil {
			out[i].URL = f.Asset.URL
		}
	}
	return out
}

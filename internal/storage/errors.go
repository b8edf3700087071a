package storage

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/minio/minio-go/v7"
)

// ErrorClass partitions store failures by cause so callers can decide whether
// to retry, degrade, or abort.
type ErrorClass int

const (
	// ClassUnknown is the default for unclassified failures. Retried.
	ClassUnknown ErrorClass = iota
	// ClassNetwork covers timeouts and connection failures. Retried.
	ClassNetwork
	// ClassAuth covers credential and signature failures. Not retried.
	ClassAuth
	// ClassNotConfigured means the store cannot serve any request
	// (missing endpoint, missing bucket). Not retried; triggers degraded mode.
	ClassNotConfigured
	// ClassQuota covers storage-quota and throttling rejections. Not retried.
	ClassQuota
	// ClassNotFound means the object does not exist.
	ClassNotFound
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNetwork:
		return "network"
	case ClassAuth:
		return "auth"
	case ClassNotConfigured:
		return "not_configured"
	case ClassQuota:
		return "quota"
	case ClassNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a typed object-store failure.
type Error struct {
	Op    string // "put", "delete", "presign"
	Key   string
	Class ErrorClass
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s %q: %s: %v", e.Op, e.Key, e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed.
// Absent explicit classification the policy is retry-all-then-fail.
func (e *Error) Retryable() bool {
	switch e.Class {
	case ClassAuth, ClassNotConfigured, ClassQuota:
		return false
	default:
		return true
	}
}

// IsNotConfigured reports whether err carries a ClassNotConfigured store error.
func IsNotConfigured(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Class == ClassNotConfigured
}

// classify maps a raw backend error onto an ErrorClass. S3 error codes per
// the AWS error code list; anything unrecognized stays ClassUnknown.
func classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return ClassNetwork
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return ClassAuth
	case "NoSuchBucket":
		return ClassNotConfigured
	case "QuotaExceeded", "SlowDown", "ServiceUnavailable":
		return ClassQuota
	case "NoSuchKey":
		return ClassNotFound
	case "RequestTimeout":
		return ClassNetwork
	}

	return ClassUnknown
}

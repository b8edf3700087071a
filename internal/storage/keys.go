package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Logical folders within the bucket.
const (
	FolderComics  = "comics"
	FolderAvatars = "avatars"
)

// ObjectKey builds the store key for an upload:
// {folder}/{ownerID}/{unixMilli}-{sanitizedFilename}. The millisecond stamp
// disambiguates repeated uploads of the same filename by the same owner;
// the owner segment separates concurrent uploads from different owners.
func ObjectKey(folder, ownerID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s", folder, ownerID, now.UnixMilli(), sanitizeFilename(filename))
}

// sanitizeFilename strips any path components and characters that are unsafe
// in S3 keys, keeping the original name recognizable.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

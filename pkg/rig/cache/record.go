package cache

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
)

// Version is part of every key so a format change starts from an empty cache.
const Version = 1

// keyPrefix precedes every path key.
var keyPrefix = []byte{'v', '0' + Version, 0}

// Record is what the cache remembers about a verified file.
type Record struct {
	Size  int64
	Mtime int64 // UnixNano
	SHA1  string
}

// NewRecord describes info as having digest sha1.
func NewRecord(info os.FileInfo, sha1 string) *Record {
	return &Record{
		Size:  info.Size(),
		Mtime: info.ModTime().UnixNano(),
		SHA1:  strings.ToLower(sha1),
	}
}

// Matches reports whether info still looks like the recorded file and the
// recorded digest equals sha1.
func (r *Record) Matches(info os.FileInfo, sha1 string) bool {
	return r.Size == info.Size() &&
		r.Mtime == info.ModTime().UnixNano() &&
		strings.EqualFold(r.SHA1, sha1)
}

// Encode serializes the record with gob.
func (r *Record) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes a gob-encoded record.
func (r *Record) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(r)
}

// MakeKey returns the key for an absolute file path.
func MakeKey(path string) []byte {
	return append(append([]byte{}, keyPrefix...), filepath.Clean(path)...)
}

// ParseKey returns the path stored in key.
func ParseKey(key []byte) string {
	return string(bytes.TrimPrefix(key, keyPrefix))
}

// MakeDirPrefix returns the key prefix of every file under dir.
func MakeDirPrefix(dir string) []byte {
	p := MakeKey(dir)
	if !bytes.HasSuffix(p, []byte{filepath.Separator}) {
		p = append(p, filepath.Separator)
	}
	return p
}

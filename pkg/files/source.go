// Package files defines the binary-content Source abstraction used when
// loading non-RDF (file) members into the repository. Only local,
// in-memory sources are implemented here; SFTP, ZIP-archive, and HTTP
// sources are out of scope (spec.md Non-goals) and are left as
// implementations of the same Source interface for an external
// collaborator to provide.
package files

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // digest format, not a security boundary
	"encoding/hex"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Source reads binary content from some location, known only by the
// concrete implementation (a string buffer, a local path, or an external
// collaborator's SFTP/ZIP/HTTP source).
//
// Grounded on BinarySource in plastron-repo/src/plastron/files/__init__.py.
type Source interface {
	// Open returns a readable stream of the source's content. The
	// caller must Close it.
	Open() (io.ReadCloser, error)
	// MimeType returns the source's best-known MIME type.
	MimeType() string
	// Exists reports whether the source can currently be read.
	Exists() bool
}

// Digest computes src's SHA-1 checksum, returning a hex-encoded digest
// prefixed with "sha1=".
//
// Grounded on BinarySource.digest.
func Digest(src Source) (string, error) {
	r, err := src.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	h := sha1.New() //nolint:gosec // matches the reference implementation's checksum format
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}

	return "sha1=" + hex.EncodeToString(h.Sum(nil)), nil
}

// StringSource is an in-memory binary source.
//
// Grounded on StringSource in files/__init__.py.
type StringSource struct {
	Data     []byte
	Filename string
	Type     string // explicit MIME type; "" falls back to guessing from Filename
}

func (s *StringSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

func (s *StringSource) MimeType() string {
	if s.Type != "" {
		return s.Type
	}

	if s.Filename != "" {
		if guessed := mime.TypeByExtension(filepath.Ext(s.Filename)); guessed != "" {
			return guessed
		}
	}

	return "application/octet-stream"
}

func (s *StringSource) Exists() bool { return true }

// LocalFileSource reads binary content from a path on the local
// filesystem.
//
// Grounded on LocalFileSource in files/__init__.py.
type LocalFileSource struct {
	Path string
}

func (s *LocalFileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s *LocalFileSource) MimeType() string {
	if guessed := mime.TypeByExtension(filepath.Ext(s.Path)); guessed != "" {
		return guessed
	}

	return "application/octet-stream"
}

func (s *LocalFileSource) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

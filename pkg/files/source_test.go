package files

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSourceMimeTypeFallsBackToOctetStream(t *testing.T) {
	s := &StringSource{Data: []byte("hello")}
	assert.Equal(t, "application/octet-stream", s.MimeType())
	assert.True(t, s.Exists())
}

func TestStringSourceMimeTypeFromExplicitType(t *testing.T) {
	s := &StringSource{Data: []byte("hello"), Type: "text/plain"}
	assert.Equal(t, "text/plain", s.MimeType())
}

func TestStringSourceMimeTypeGuessedFromFilename(t *testing.T) {
	s := &StringSource{Data: []byte("<html></html>"), Filename: "page.html"}
	assert.Contains(t, s.MimeType(), "html")
}

func TestStringSourceOpenReturnsData(t *testing.T) {
	s := &StringSource{Data: []byte("hello world")}

	r, err := s.Open()
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestDigestMatchesKnownSHA1(t *testing.T) {
	s := &StringSource{Data: []byte("hello world")}

	digest, err := Digest(s)
	require.NoError(t, err)
	assert.Equal(t, "sha1=2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", digest)
}

func TestLocalFileSourceExistsAndReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("on disk"), 0o644))

	s := &LocalFileSource{Path: path}
	assert.True(t, s.Exists())

	r, err := s.Open()
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "on disk", string(data))
}

func TestLocalFileSourceMissingFileDoesNotExist(t *testing.T) {
	s := &LocalFileSource{Path: filepath.Join(t.TempDir(), "missing.txt")}
	assert.False(t, s.Exists())

	_, err := s.Open()
	assert.Error(t, err)
}

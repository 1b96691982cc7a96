// Package upload writes respondent file attachments to durable storage.
// Names are generated, never taken from the client, so concurrent uploads
// cannot collide and path traversal is off the table.
package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gofrs/uuid"
)

// MaxFileSize is the per-file ceiling for uploaded attachments.
const MaxFileSize = 25 << 20 // 25 MiB

// PathPrefix is where stored files are served from.
const PathPrefix = "/uploads/"

var ErrTooLarge = errors.New("file exceeds the 25 MiB limit")

var reUnsafe = regexp.MustCompile(`[^\w-]`)

type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// Save stores one uploaded file under a name derived from the question id
// plus a random suffix, keeping the original extension. It returns the
// public path the file will be served at.
func (s *Store) Save(questionID string, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxFileSize {
		return "", ErrTooLarge
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	name := reUnsafe.ReplaceAllString(questionID, "_") + "-" + id.String() + filepath.Ext(fh.Filename)

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}

	_, err = io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}

	err = dst.Close()
	if err != nil {
		return "", err
	}
	return PathPrefix + name, nil
}

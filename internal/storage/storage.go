// Package storage keeps uploaded procedure documents.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Object describes a stored file.
type Object struct {
	Key      string
	Size     int64
	Checksum string // sha256, hex
}

type Store interface {
	Put(name string, r io.Reader) (Object, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// LocalStore is a Store on the local filesystem.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Wrap(err, "could not create storage dir")
	}
	return &LocalStore{root: root}, nil
}

// ObjectKey builds a unique, filesystem-safe key from an upload's file name.
func ObjectKey(name string) string {
	base := filepath.Base(name)
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "document"
	}
	if len(stem) > 80 {
		stem = stem[:80]
	}
	return uuid.NewString() + "-" + stem + sanitizeExt(strings.ToLower(filepath.Ext(base)))
}

func sanitizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	clean := slug.Make(strings.TrimPrefix(ext, "."))
	if clean == "" {
		return ""
	}
	return "." + clean
}

func (s *LocalStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, key), nil
}

func (s *LocalStore) Put(name string, r io.Reader) (Object, error) {
	key := ObjectKey(name)
	p, err := s.path(key)
	if err != nil {
		return Object{}, err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return Object{}, errors.Wrap(err, "could not create object")
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return Object{}, errors.Wrap(err, "could not write object")
	}

	return Object{Key: key, Size: n, Checksum: hex.EncodeToString(h.Sum(nil))}, nil
}

func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not open object")
	}
	return f, nil
}

func (s *LocalStore) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return errors.Wrap(err, "could not delete object")
}

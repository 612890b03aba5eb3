// Package storage holds uploaded article images and hands back a reference
// that can be stored on the record. The backend is swappable; only the local
// disk implementation ships here.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Storage interface {
	// Save stores the blob and returns a retrievable reference.
	Save(filename string, r io.Reader) (string, error)
	Delete(ref string) error
}

type LocalStorage struct {
	Root string
}

func NewLocal(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(root, "articles"), 0o755); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &LocalStorage{Root: root}, nil
}

func (s *LocalStorage) Save(filename string, r io.Reader) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	ref := filepath.Join("articles", hex.EncodeToString(b)+"_"+filepath.Base(filename))

	dst, err := os.Create(filepath.Join(s.Root, ref))
	if err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(filepath.Join(s.Root, ref))
		return "", fmt.Errorf("storage: %w", err)
	}
	return ref, nil
}

func (s *LocalStorage) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// Package content fetches and stores opening description documents by opaque reference.
package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound   = errors.New("content not found")
	ErrInvalidRef = errors.New("invalid content reference")
)

// Store fetches raw content by reference. The bytes are returned as stored.
type Store interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
	Put(ctx context.Context, ref string, data []byte) error
}

// MDXRef is the reference under which the description of slug is stored.
func MDXRef(slug string) string {
	return "mdx/" + slug + ".mdx"
}

// cleanRef rejects empty references and references that climb out of the store root.
func cleanRef(ref string) (string, error) {
	ref = strings.Trim(strings.ReplaceAll(strings.TrimSpace(ref), "\\", "/"), "/")
	if ref == "" {
		return "", ErrInvalidRef
	}
	for _, seg := range strings.Split(ref, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
		}
	}
	cleaned := path.Clean(ref)
	if cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return cleaned, nil
}

// DirStore keeps content in a local directory.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	return &DirStore{root: abs}, nil
}

func (s *DirStore) path(ref string) (string, error) {
	rel, err := cleanRef(ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

func (s *DirStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", ref, err)
	}
	return data, nil
}

func (s *DirStore) Put(ctx context.Context, ref string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("write content %s: %w", ref, err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write content %s: %w", ref, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write content %s: %w", ref, err)
	}
	return nil
}

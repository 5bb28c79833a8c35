package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Static returns the same token on every call.
type Static string

// Token returns the static token.
func (s Static) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// File reads the token from a file on every call, so a token rotated on
// disk is picked up by the next connection attempt. A missing file means
// no session.
type File string

// Token returns the trimmed file contents.
func (f File) Token(ctx context.Context) (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Func adapts a function to a token source.
type Func func(ctx context.Context) (string, error)

// Token calls f.
func (f Func) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

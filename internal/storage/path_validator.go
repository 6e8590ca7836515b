package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"

	"home-cloud/pkg/apierror"
)

// PathValidator maps client-supplied relative paths onto the canonical
// media root. Rejection happens lexically before any join; after the join
// the candidate is canonicalized through symlinks and checked for
// containment. isWithinRoot is the only containment check in the codebase.
type PathValidator struct {
	rootAbs string
}

// NewPathValidator canonicalizes root, which must already exist.
func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}

	rootCanonical, err := filepath.EvalSymlinks(rootAbs)
	if err != nil {
		return nil, fmt.Errorf("canonicalize media root: %w", err)
	}

	return &PathValidator{rootAbs: rootCanonical}, nil
}

func (v *PathValidator) RootAbs() string {
	return v.rootAbs
}

func (v *PathValidator) IsRoot(abs string) bool {
	return abs == v.rootAbs
}

// ResolvePath turns a client path into an absolute path inside the root.
// The target itself does not have to exist; its deepest existing ancestor
// is resolved through symlinks so indirection cannot escape the root.
func (v *PathValidator) ResolvePath(clientPath string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(clientPath), `\`, "/")
	if normalized == "" || normalized == "/" {
		return v.rootAbs, nil
	}

	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", apierror.InvalidPath(clientPath)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", apierror.OutOfBounds(clientPath)
		}
	}

	cleanRel := filepath.Clean(strings.TrimPrefix(normalized, "/"))
	if cleanRel == "." {
		return v.rootAbs, nil
	}

	resolved, err := canonicalize(filepath.Join(v.rootAbs, cleanRel))
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", clientPath, err)
	}

	if !isWithinRoot(v.rootAbs, resolved) {
		return "", apierror.OutOfBounds(clientPath)
	}

	return resolved, nil
}

// CleanName validates a single path segment (a file or folder leaf name)
// and returns it trimmed. Names are never rewritten beyond trimming.
func (v *PathValidator) CleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apierror.InvalidName("name is empty")
	}

	if trimmed == "." || trimmed == ".." {
		return "", apierror.InvalidName(name)
	}

	if strings.ContainsAny(trimmed, `/\`) {
		return "", apierror.InvalidName(name)
	}

	if strings.Contains(trimmed, "\x00") || hasControlCharacters(trimmed) {
		return "", apierror.InvalidName(name)
	}

	return trimmed, nil
}

// canonicalize resolves symlinks on the deepest existing ancestor of abs
// and re-appends the non-existing tail, so paths that are about to be
// created can still be containment-checked.
func canonicalize(abs string) (string, error) {
	current := abs
	tail := ""
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			if tail == "" {
				return resolved, nil
			}
			return filepath.Join(resolved, tail), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %q", abs)
		}
		if tail == "" {
			tail = filepath.Base(current)
		} else {
			tail = filepath.Join(filepath.Base(current), tail)
		}
		current = parent
	}
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return true
	}

	rootWithSeparator := rootAbs + string(filepath.Separator)
	return strings.HasPrefix(candidateAbs, rootWithSeparator)
}

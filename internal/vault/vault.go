// Package vault owns file access for board documents: reading and
// atomically writing markdown files, serializing read-modify-write
// cycles per path, and scanning a directory tree into parsed boards.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/boardmd/boardmd/internal/board"
	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/logger"
	"github.com/boardmd/boardmd/internal/settings"
)

// Host abstracts the file tree a vault operates on. Paths are relative
// to the host's root and slash-separated.
type Host interface {
	// List returns the relative paths of every markdown file.
	List(ctx context.Context) ([]string, error)
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) error
}

// DirHost is a Host over a directory on the local filesystem. Writes
// are atomic: content goes to a temp file in the same directory and is
// renamed over the target.
type DirHost struct {
	Root string
}

// NewDirHost creates a host rooted at dir.
func NewDirHost(dir string) *DirHost {
	return &DirHost{Root: dir}
}

func (h *DirHost) abs(path string) string {
	return filepath.Join(h.Root, filepath.FromSlash(path))
}

func (h *DirHost) List(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(h.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if d.IsDir() {
			if p != h.Root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), ".md") {
			return nil
		}
		rel, err := filepath.Rel(h.Root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", h.Root, err)
	}
	return out, nil
}

func (h *DirHost) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(h.abs(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h *DirHost) WriteFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := h.abs(path)
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// Vault couples a Host with a parser and serializes mutations per path.
type Vault struct {
	Host   Host
	Parser *board.Parser
	Log    *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a vault. A nil log discards output.
func New(host Host, base settings.Settings, log *logger.Logger) *Vault {
	if log == nil {
		log = logger.Discard()
	}
	return &Vault{
		Host:   host,
		Parser: board.NewParser(base, log),
		Log:    log,
		locks:  map[string]*sync.Mutex{},
	}
}

func (v *Vault) pathLock(path string) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()
	l, ok := v.locks[path]
	if !ok {
		l = &sync.Mutex{}
		v.locks[path] = l
	}
	return l
}

// Load reads and parses one document.
func (v *Vault) Load(ctx context.Context, path string) (*domain.Board, settings.Settings, error) {
	text, err := v.Host.ReadFile(ctx, path)
	if err != nil {
		return nil, settings.Settings{}, fmt.Errorf("read %s: %w", path, err)
	}
	p := v.fileParser(path)
	b, eff := p.Parse(text)
	return b, eff, nil
}

// Update runs fn over the document's current text under the path's lock
// and writes the result back if it changed. An error from fn aborts the
// write; concurrent updates to the same path are serialized, so fn sees
// the previous update's output.
func (v *Vault) Update(ctx context.Context, path string, fn func(text string) (string, error)) error {
	l := v.pathLock(path)
	l.Lock()
	defer l.Unlock()

	text, err := v.Host.ReadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	out, err := fn(text)
	if err != nil {
		return err
	}
	if out == text {
		return nil
	}
	if err := v.Host.WriteFile(ctx, path, out); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// fileParser clones the vault's parser with the path set as log context.
func (v *Vault) fileParser(path string) *board.Parser {
	p := *v.Parser
	p.File = path
	return &p
}

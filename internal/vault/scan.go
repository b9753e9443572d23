package vault

import (
	"context"
	"time"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/settings"
)

// FileBoard is one scanned document with its source path.
type FileBoard struct {
	Path     string
	Board    *domain.Board
	Settings settings.Settings
}

// Scan walks the host's markdown files and parses each into a board.
// A file that fails to read is logged and skipped; one bad file never
// aborts the scan. The alive callback runs between files so a caller
// driving the scan from a UI can cancel a walk it no longer wants; nil
// means always alive.
func (v *Vault) Scan(ctx context.Context, alive func() bool) ([]FileBoard, error) {
	start := time.Now()

	paths, err := v.Host.List(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out      []FileBoard
		readErrs int
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if alive != nil && !alive() {
			break
		}

		text, err := v.Host.ReadFile(ctx, path)
		if err != nil {
			v.Log.FileError(path, err)
			readErrs++
			continue
		}
		b, eff := v.fileParser(path).Parse(text)
		out = append(out, FileBoard{Path: path, Board: b, Settings: eff})
	}

	v.Log.ScanCompleted(len(paths), len(out), readErrs, time.Since(start))
	return out, nil
}

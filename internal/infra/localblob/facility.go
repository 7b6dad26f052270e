// Package localblob resolves locally selected files against a shared
// media directory, issuing file URLs the playback device can open.
package localblob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/localfiles"
)

// DirFacility maps selected file names onto a directory on disk. It
// implements localfiles.BlobFacility.
type DirFacility struct {
	dir string
}

// NewDirFacility creates a facility rooted at dir.
func NewDirFacility(dir string) *DirFacility {
	return &DirFacility{dir: dir}
}

// CreateResourceURL resolves a selected file to a file URL under the
// facility's directory. Names that escape the directory or point at
// missing files are rejected.
func (f *DirFacility) CreateResourceURL(file localfiles.RawFile) (string, error) {
	name := filepath.Base(file.Name)
	if name == "." || name == ".." || strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("invalid file name %q", file.Name)
	}

	path := filepath.Join(f.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("file not available: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%q is a directory", name)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return "file://" + abs, nil
}

// RevokeResourceURL releases a previously issued URL. File URLs hold
// no server-side allocation, so this only logs.
func (f *DirFacility) RevokeResourceURL(url string) {
	log.Debug().Str("url", url).Msg("Released local file URL")
}

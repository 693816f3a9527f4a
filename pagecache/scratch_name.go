package pagecache

import (
	"path/filepath"

	"github.com/google/uuid"
)

// defaultScratchDir is where FileMmapper creates its backing files
// when FileMmapper.Dir is left empty.
const defaultScratchDir = "./tmp"

// scratchFileName returns a collision-resistant path for a new
// file-backed chunk under dir, e.g. "./tmp/cache-<uuid>".
func scratchFileName(dir string) string {
	if dir == "" {
		dir = defaultScratchDir
	}
	return filepath.Join(dir, "cache-"+uuid.NewString())
}

package engine

import (
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// writeAtomic пишет data во временный файл рядом с целью, делает fsync и
// переименовывает его в path. При ошибке временный файл удаляется, а прежнее
// содержимое path не меняется.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0644, renameio.WithTempDir(dir))
}

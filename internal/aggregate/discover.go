package aggregate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziltek/calcombine/internal/models"
)

// Discover lists the workbooks directly inside dir, in name order. Subdirectories are not
// searched. The source type of each is the leading token of its file name.
func Discover(dir string) ([]models.SourceFile, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, absDir)
		}
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var files []models.SourceFile
	for _, e := range entries {
		if e.IsDir() || !models.IsWorkbook(e.Name()) {
			continue
		}
		path := filepath.Join(absDir, e.Name())
		// Resolve symlinks so only regular files are read
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			continue
		}
		files = append(files, models.SourceFile{Path: path, Type: models.SourceTypeFromFilename(path)})
	}
	return files, nil
}

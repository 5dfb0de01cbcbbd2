package output

import (
	"fmt"
	"os"
	"time"
)

// Artifact describes the output file on disk.
type Artifact struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Stat returns the artifact at path. A missing file is not an error; Exists is false and
// ModTime is zero.
func Stat(path string) (Artifact, error) {
	a := Artifact{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return a, nil
		}
		return a, fmt.Errorf("stat output: %w", err)
	}
	if info.IsDir() {
		return a, fmt.Errorf("output path is a directory: %s", path)
	}
	a.Exists = true
	a.Size = info.Size()
	a.ModTime = info.ModTime()
	return a, nil
}

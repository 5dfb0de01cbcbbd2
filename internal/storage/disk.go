package storage

import (
	"os"
	"strings"
)

// DiskUsageBytes returns the total size in bytes of the given files.
// Missing paths and empty strings contribute 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}

// sqlitePath returns the database file named by a go-sqlite3 DSN, or "" for an in-memory database.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == ":memory:" {
		return ""
	}
	return path
}

// SizeBytes returns the on-disk size of a SQLite database, WAL files included.
// It is 0 for PostgreSQL, whose storage is not local.
func (s *SQLStore) SizeBytes() (int64, error) {
	if s.driver != DriverSQLite {
		return 0, nil
	}
	path := sqlitePath(s.dsn)
	if path == "" {
		return 0, nil
	}
	return DiskUsageBytes(path, path+"-wal", path+"-shm")
}

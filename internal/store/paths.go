package store

import "path/filepath"

// DBFile is the history database file name inside the history directory.
const DBFile = "history.db"

// DBPath returns the history database path inside dir.
func DBPath(dir string) string {
	return filepath.Join(dir, DBFile)
}

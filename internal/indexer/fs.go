package indexer

import (
	"os"
	"time"
)

// modTimeResolution matches the store's mtime column, which persists Unix
// seconds: finer-grained mtimes must be truncated before comparison or every
// file would appear to have changed on every run.
const modTimeResolution = time.Second

func fsStat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

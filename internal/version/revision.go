package version

import (
	"os"
	"strings"
	"time"
)

// NoRevision is reported when no revision marker file is readable.
const NoRevision = "Gitless"

// Revision returns the first tab-separated field of the marker file at path
// (a git FETCH_HEAD in deployments), or NoRevision.
func Revision(path string) string {
	if path == "" {
		return NoRevision
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return NoRevision
	}
	rev, _, _ := strings.Cut(string(data), "\t")
	return rev
}

// ModTime returns the modification time of path. An empty path means the
// running executable.
func ModTime(path string) (time.Time, error) {
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return time.Time{}, err
		}
		path = exe
	}
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

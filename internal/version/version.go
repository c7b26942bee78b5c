package version

import (
	"fmt"
	"runtime"
	"time"
)

// Set at build time with -ldflags "-X github.com/MrSnakeDoc/notice/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = time.Now().UTC().Format(time.RFC3339)
	GoVersion = runtime.Version()
)

// String describes the running build in one line.
func String() string {
	return fmt.Sprintf("notice %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}

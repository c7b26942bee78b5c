package deps

import (
	"time"

	"github.com/MrSnakeDoc/notice/internal/clock"
	"github.com/MrSnakeDoc/notice/internal/errlog"
	"github.com/MrSnakeDoc/notice/internal/logger"
	"github.com/MrSnakeDoc/notice/internal/ratelimit"
	"github.com/MrSnakeDoc/notice/internal/store/messages"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	Token          string             // shared secret required by POST /
	Clock          *clock.Clock       // renders every timestamp in the service zone
	Store          *messages.Store    // the one message set, loaded before serving
	ErrorLog       *errlog.Sink       // day-partitioned error log
	Limiter        *ratelimit.Limiter // shared by every route
	FaviconFile    string             // served on /favicon.ico when present
	RevisionFile   string             // source of "v" on GET /
	MTimeFile      string             // source of "mtime" on GET / (empty = own executable)
	AllowedHosts   []string           // Host headers allowed to access the server
	AllowedCIDRS   []string           // IPs allowed to access readyz/metrics endpoints
	TrustProxy     bool               // true if running behind a trusted reverse proxy
	MetricsEnabled bool               // expose /metrics
}

package providers

import (
	"os"
	"time"

	"github.com/reelstitch/reelstitch/internal/render"
	"github.com/reelstitch/reelstitch/internal/service"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second
)

// RenderReport writes a report's entries to the configured output target:
// the given file path, or stdout when the path is empty. Both the initial
// run and watch-mode rebuilds go through here.
func RenderReport(report *service.Report, format render.Format, path string) error {
	if path != "" {
		return render.RenderToFile(path, report.Entries, format)
	}
	return render.Render(os.Stdout, report.Entries, format)
}

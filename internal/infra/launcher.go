package infra

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

// SystemLauncher implements domain.AppLauncher by handing the URI to
// the OS opener. It is the boundary to the out-of-scope launching
// collaborator; everything before it stays synchronous and pure.
type SystemLauncher struct {
	logger *zap.Logger
}

// NewSystemLauncher creates a launcher.
func NewSystemLauncher(logger *zap.Logger) *SystemLauncher {
	return &SystemLauncher{logger: logger}
}

// Launch opens the URI with the platform opener. The target may already
// be running; the OS brings it to the foreground in that case, we only
// note it for diagnostics.
func (l *SystemLauncher) Launch(uri string) error {
	if running, name := l.targetRunning(uri); running {
		l.logger.Info("target already running, foregrounding",
			zap.String("uri", uri),
			zap.String("process", name))
	}

	cmd := exec.Command(openCommand(), uri)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", uri, err)
	}
	// Reap the opener in the background; its exit status is not ours to act on.
	go func() { _ = cmd.Wait() }()
	return nil
}

// targetRunning scans processes for a name matching the URI scheme.
func (l *SystemLauncher) targetRunning(uri string) (bool, string) {
	scheme := strings.TrimSuffix(uri, "://")
	if i := strings.Index(scheme, "://"); i >= 0 {
		scheme = scheme[:i]
	}
	if scheme == "" {
		return false, ""
	}

	procs, err := process.Processes()
	if err != nil {
		return false, ""
	}
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(scheme)) {
			return true, name
		}
	}
	return false, ""
}

func openCommand() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

// LoggingHomeSurface implements domain.HomeSurface. The real home
// transition belongs to the host launcher; here it is observable only
// through the log.
type LoggingHomeSurface struct {
	logger *zap.Logger
}

// NewLoggingHomeSurface creates a home surface collaborator.
func NewLoggingHomeSurface(logger *zap.Logger) *LoggingHomeSurface {
	return &LoggingHomeSurface{logger: logger}
}

// Show records the return to the home surface.
func (h *LoggingHomeSurface) Show() error {
	h.logger.Info("returning to home surface")
	return nil
}

// Ensure implementations satisfy the domain interfaces.
var (
	_ domain.AppLauncher = (*SystemLauncher)(nil)
	_ domain.HomeSurface = (*LoggingHomeSurface)(nil)
)

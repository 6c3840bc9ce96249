package logging

import (
	"os"
	"path/filepath"

	ipfslog "github.com/ipfs/go-log/v2"

	"github.com/rexliu/flake/pkg/config"
)

// Logger wraps a named go-log logger.
type Logger struct {
	*ipfslog.ZapEventLogger
	name string
}

// New returns a logger for the named subsystem.
func New(name string) *Logger {
	return &Logger{ZapEventLogger: ipfslog.Logger(name), name: name}
}

// Configure applies logging settings from config. Output settings are
// process-wide; the level applies to this subsystem only.
func (l *Logger) Configure(cfg config.LoggingConfig) error {
	if l == nil || l.ZapEventLogger == nil {
		return nil
	}
	if cfg.FilePath != "" || cfg.Format != "" {
		setup := ipfslog.Config{
			Format: outputFormat(cfg.Format),
			Level:  ipfslog.LevelInfo,
			Stderr: true,
		}
		if cfg.FilePath != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o700); err != nil {
				return err
			}
			setup.File = cfg.FilePath
			setup.Stderr = false
		}
		ipfslog.SetupLogging(setup)
	}
	if cfg.Level != "" {
		return ipfslog.SetLogLevel(l.name, cfg.Level)
	}
	return nil
}

func outputFormat(name string) ipfslog.LogFormat {
	switch name {
	case "json":
		return ipfslog.JSONOutput
	case "color":
		return ipfslog.ColorizedOutput
	default:
		return ipfslog.PlaintextOutput
	}
}

package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// DefaultLogFile is where linkhoard logs when LINKHOARD_LOG_FILE is unset:
// next to the hash cache under the user cache dir, or the temp dir when no
// cache dir exists.
func DefaultLogFile() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "linkhoard.log")
	}
	return filepath.Join(cacheDir, "linkhoard", "linkhoard.log")
}

// SetupLogger builds the linkhoard logger: human-readable text on stderr and
// JSON appended to logFile, so the TUI's stderr stays greppable while the file
// feeds structured tooling. The returned cleanup closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	// The default path lives under a per-app cache subdir that may not exist
	// yet on first run.
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		slog.Error("failed to create log directory, using stderr only", "error", err, "dir", filepath.Dir(logFile))
		return slog.New(stderrHandler), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return slog.New(stderrHandler), func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(slogmulti.Fanout(stderrHandler, fileHandler))

	return logger, file.Close
}

// SetupLoggerWithWriters is SetupLogger over injected writers, for tests.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}

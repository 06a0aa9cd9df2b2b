// Package logger provides the append-only audit trail and crash logging
// for IntakeWing. Workflow errors, reactivations, weight adjustments, and
// threshold alerts all land in the audit log so nothing is silently
// dropped.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"
)

const (
	// AuditFileName is the audit log file inside the data directory.
	AuditFileName = "audit.log"

	// CrashLogDir is the directory for crash logs relative to the base path.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep.
	MaxCrashLogs = 10
)

type state struct {
	mu       sync.RWMutex
	basePath string
	version  string
	command  string
}

var global = &state{}

// SetBasePath sets the base path for audit and crash logs (typically the
// .intakewing directory).
func SetBasePath(path string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.version = version
}

// SetCommand sets the current command being executed.
func SetCommand(cmd string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.command = cmd
}

func basePath() string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	if global.basePath == "" {
		return ".intakewing"
	}
	return global.basePath
}

var auditMu sync.Mutex

// Audit appends one timestamped line to the audit log. Failures fall back
// to stderr; the audit trail degrades, it never blocks an operation.
func Audit(format string, args ...any) {
	line := fmt.Sprintf("%s %s\n", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))

	auditMu.Lock()
	defer auditMu.Unlock()

	dir := basePath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] audit log unavailable: %v\n", err)
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, AuditFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] audit log unavailable: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] audit write failed: %v\n", err)
	}
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	if r := recover(); r != nil {
		if err := writeCrashLog(r); err != nil {
			fmt.Fprintf(os.Stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
			fmt.Fprintf(os.Stderr, "[CRASH] Panic: %v\n%s\n", r, debug.Stack())
		} else {
			fmt.Fprintf(os.Stderr, "\nIntakeWing encountered an unexpected error.\n")
			fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n", crashLogPath(time.Now()))
		}
		os.Exit(1)
	}
}

func crashLogDir() string {
	return filepath.Join(basePath(), CrashLogDir)
}

func crashLogPath(t time.Time) string {
	return filepath.Join(crashLogDir(), fmt.Sprintf("crash_%s.log", t.Format("20060102_150405")))
}

func writeCrashLog(panicValue any) error {
	dir := crashLogDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create crash log dir: %w", err)
	}
	if err := cleanOldCrashLogs(dir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}

	global.mu.RLock()
	version, command := global.version, global.command
	global.mu.RUnlock()

	now := time.Now()
	content := fmt.Sprintf("time: %s\nversion: %s\ncommand: %s\npanic: %v\n\n%s\n",
		now.Format(time.RFC3339), version, command, panicValue, debug.Stack())
	if err := os.WriteFile(crashLogPath(now), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write crash log: %w", err)
	}
	return nil
}

// cleanOldCrashLogs keeps only the newest MaxCrashLogs-1 files so the next
// write stays within the cap.
func cleanOldCrashLogs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) < MaxCrashLogs {
		return nil
	}
	// Timestamped names sort chronologically.
	for i := 0; i < len(names)-1; i++ {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	for _, name := range names[:len(names)-MaxCrashLogs+1] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

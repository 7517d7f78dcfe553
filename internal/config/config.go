package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/medremind/internal/model"
)

type RuntimeConfig struct {
	DBPath               string
	GraceWindow          time.Duration
	SchedulerBuffer      int
	Notifications        bool
	DesktopNotifications bool
	KeepDailyOnAck       bool
	LogFile              string
	LogLevel             log.Level
	LogFormat            string
	DefaultFilter        model.Filter
}

func Default() RuntimeConfig {
	return RuntimeConfig{
		DBPath:               "medremind.db",
		GraceWindow:          10 * time.Minute,
		SchedulerBuffer:      64,
		Notifications:        true,
		DesktopNotifications: false,
		KeepDailyOnAck:       false,
		LogFile:              filepath.Join(os.TempDir(), "medremind.log"),
		LogLevel:             log.InfoLevel,
		LogFormat:            "text",
		DefaultFilter:        model.FilterDaily,
	}
}

// FromEnv overlays MEDREMIND_* variables on base. Invalid values are ignored.
func FromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("MEDREMIND_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvInt("MEDREMIND_GRACE_MINUTES"); ok && v > 0 {
		cfg.GraceWindow = time.Duration(v) * time.Minute
	}
	if v, ok := getEnvInt("MEDREMIND_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvBool("MEDREMIND_NOTIFICATIONS"); ok {
		cfg.Notifications = v
	}
	if v, ok := getEnvBool("MEDREMIND_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvBool("MEDREMIND_KEEP_DAILY_ON_ACK"); ok {
		cfg.KeepDailyOnAck = v
	}
	if v, ok := getEnvString("MEDREMIND_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvString("MEDREMIND_LOG_LEVEL"); ok {
		if level, err := log.ParseLevel(v); err == nil {
			cfg.LogLevel = level
		}
	}
	if v, ok := getEnvString("MEDREMIND_LOG_FORMAT"); ok {
		switch strings.ToLower(v) {
		case "text", "json", "logfmt":
			cfg.LogFormat = strings.ToLower(v)
		}
	}
	if v, ok := getEnvString("MEDREMIND_DEFAULT_FILTER"); ok {
		if f, err := model.ParseFilter(v); err == nil {
			cfg.DefaultFilter = f
		}
	}
	return cfg
}

// Formatter maps LogFormat onto the charm log formatter.
func (c RuntimeConfig) Formatter() log.Formatter {
	switch c.LogFormat {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

package config

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/medremind/internal/model"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.GraceWindow != 10*time.Minute || cfg.SchedulerBuffer != 64 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Notifications || cfg.DesktopNotifications || cfg.KeepDailyOnAck {
		t.Fatalf("unexpected notification defaults: %+v", cfg)
	}
	if cfg.DefaultFilter != model.FilterDaily || cfg.LogLevel != log.InfoLevel {
		t.Fatalf("unexpected filter/log defaults: %+v", cfg)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MEDREMIND_DB_PATH", "data/meds.db")
	t.Setenv("MEDREMIND_GRACE_MINUTES", "15")
	t.Setenv("MEDREMIND_SCHEDULER_BUFFER", "128")
	t.Setenv("MEDREMIND_NOTIFICATIONS", "off")
	t.Setenv("MEDREMIND_DESKTOP_NOTIFICATIONS", "true")
	t.Setenv("MEDREMIND_KEEP_DAILY_ON_ACK", "yes")
	t.Setenv("MEDREMIND_LOG_FILE", "/tmp/meds.log")
	t.Setenv("MEDREMIND_LOG_LEVEL", "debug")
	t.Setenv("MEDREMIND_LOG_FORMAT", "JSON")
	t.Setenv("MEDREMIND_DEFAULT_FILTER", "missed")

	cfg := FromEnv(Default())
	if cfg.DBPath != "data/meds.db" || cfg.LogFile != "/tmp/meds.log" {
		t.Fatalf("unexpected paths: %+v", cfg)
	}
	if cfg.GraceWindow != 15*time.Minute || cfg.SchedulerBuffer != 128 {
		t.Fatalf("unexpected numeric overrides: %+v", cfg)
	}
	if cfg.Notifications || !cfg.DesktopNotifications || !cfg.KeepDailyOnAck {
		t.Fatalf("unexpected bool overrides: %+v", cfg)
	}
	if cfg.LogLevel != log.DebugLevel || cfg.LogFormat != "json" || cfg.DefaultFilter != model.FilterMissed {
		t.Fatalf("unexpected log/filter overrides: %+v", cfg)
	}
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("MEDREMIND_GRACE_MINUTES", "-3")
	t.Setenv("MEDREMIND_SCHEDULER_BUFFER", "lots")
	t.Setenv("MEDREMIND_NOTIFICATIONS", "maybe")
	t.Setenv("MEDREMIND_LOG_LEVEL", "loud")
	t.Setenv("MEDREMIND_LOG_FORMAT", "xml")
	t.Setenv("MEDREMIND_DEFAULT_FILTER", "weekly")

	base := Default()
	cfg := FromEnv(base)
	if cfg != base {
		t.Fatalf("invalid env values should be ignored: %+v", cfg)
	}
}

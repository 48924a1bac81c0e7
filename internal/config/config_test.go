package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"STORE_BACKEND", "CLASS_START", "LATE_AFTER", "CLASS_TIMEZONE", "QUEUE_BACKEND", "CLOUDINARY_CLOUD_NAME"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.StoreBackend != "file" || cfg.QueueBackend != "memory" {
		t.Fatalf("backends = %s/%s", cfg.StoreBackend, cfg.QueueBackend)
	}
	if cfg.ClassStart != 9*time.Hour || cfg.LateAfter != 15*time.Minute {
		t.Fatalf("policy = %s/%s", cfg.ClassStart, cfg.LateAfter)
	}
	if cfg.Location != time.Local {
		t.Fatalf("location = %v", cfg.Location)
	}
	if cfg.CloudinaryConfigured() {
		t.Fatal("cloudinary should be unconfigured by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLASS_START", "08:30")
	t.Setenv("LATE_AFTER", "10m")
	t.Setenv("CLASS_TIMEZONE", "UTC")
	t.Setenv("SEED_SAMPLE", "false")
	t.Setenv("QR_SIZE", "320")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "k")
	t.Setenv("CLOUDINARY_API_SECRET", "s")

	cfg := Load()
	if cfg.ClassStart != 8*time.Hour+30*time.Minute || cfg.LateAfter != 10*time.Minute {
		t.Fatalf("policy = %s/%s", cfg.ClassStart, cfg.LateAfter)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("location = %v", cfg.Location)
	}
	if cfg.SeedSample || cfg.QRSize != 320 || !cfg.CloudinaryConfigured() {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CLASS_START", "9am")
	t.Setenv("LATE_AFTER", "soon")
	t.Setenv("CLASS_TIMEZONE", "Mars/Olympus")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("SEED_SAMPLE", "maybe")

	cfg := Load()
	if cfg.ClassStart != 9*time.Hour || cfg.LateAfter != 15*time.Minute {
		t.Fatalf("policy = %s/%s", cfg.ClassStart, cfg.LateAfter)
	}
	if cfg.Location != time.Local || cfg.RateLimitPerMin != 120 || !cfg.SeedSample {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"09:00", 9 * time.Hour, true},
		{"00:00", 0, true},
		{"23:59", 23*time.Hour + 59*time.Minute, true},
		{"24:00", 0, false},
		{"9", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseClock(%q) = %s, %v", tt.in, got, err)
		}
	}
}

package timeouts

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	if Ping() != DefaultPing {
		t.Errorf("Ping() = %v, want %v", Ping(), DefaultPing)
	}
	if Long() != DefaultLong {
		t.Errorf("Long() = %v, want %v", Long(), DefaultLong)
	}
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { Configure(Config{Ping: DefaultPing, Long: DefaultLong}) })

	Configure(Config{Ping: 500 * time.Millisecond})
	if Ping() != 500*time.Millisecond {
		t.Errorf("Ping() = %v after Configure", Ping())
	}
	if Long() != DefaultLong {
		t.Error("zero Config field must not change the current value")
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(func() { Configure(Config{Ping: DefaultPing, Long: DefaultLong}) })

	t.Setenv("TEACHDRIVE_TIMEOUT_PING", "750ms")
	t.Setenv("TEACHDRIVE_TIMEOUT_LONG", "not-a-duration")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("ConfigureFromEnv() = %d, want 1", n)
	}
	cur := Current()
	if cur.Ping != 750*time.Millisecond {
		t.Errorf("Ping = %v, want 750ms", cur.Ping)
	}
	if cur.Long != DefaultLong {
		t.Error("an unparseable value must leave the current value alone")
	}
}

package tor

import (
	"errors"
	"testing"
	"time"
)

// TestNewEmbeddedTor tests the embedded daemon manager without starting Tor.
func TestNewEmbeddedTor(t *testing.T) {
	t.Parallel()

	t.Run("uses default timeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor()
		if e.startupTimeout != defaultStartupTimeout {
			t.Errorf("expected %v, got %v", defaultStartupTimeout, e.startupTimeout)
		}
	})

	t.Run("applies WithStartupTimeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor(WithStartupTimeout(30 * time.Second))
		if e.startupTimeout != 30*time.Second {
			t.Errorf("expected 30s, got %v", e.startupTimeout)
		}
	})

	t.Run("ignores non-positive timeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor(WithStartupTimeout(0))
		if e.startupTimeout != defaultStartupTimeout {
			t.Errorf("expected default timeout, got %v", e.startupTimeout)
		}
	})

	t.Run("unstarted state", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor()
		if e.IsRunning() {
			t.Error("expected not running")
		}
		if e.SocksAddr() != "" {
			t.Errorf("expected empty SOCKS address, got %q", e.SocksAddr())
		}
		if err := e.Stop(); err != nil {
			t.Errorf("expected Stop on unstarted instance to succeed, got %v", err)
		}
		if _, err := e.NewClient(); !errors.Is(err, ErrNotRunning) {
			t.Errorf("expected ErrNotRunning, got %v", err)
		}
	})
}

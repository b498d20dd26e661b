package document

import "testing"

func TestComputeKeepAliveDefaultsTrue(t *testing.T) {
	d := New()
	d.ComputeKeepAlive()
	if !d.IsKeepAlive {
		t.Fatalf("expected keep-alive true when connection header absent")
	}
}

func TestComputeKeepAliveExplicitKeepAlive(t *testing.T) {
	d := New()
	d.Header.Set("Connection", "keep-alive")
	d.ComputeKeepAlive()
	if !d.IsKeepAlive {
		t.Fatalf("expected keep-alive true for explicit keep-alive")
	}
}

func TestComputeKeepAliveClose(t *testing.T) {
	d := New()
	d.Header.Set("Connection", "close")
	d.ComputeKeepAlive()
	if d.IsKeepAlive {
		t.Fatalf("expected keep-alive false for Connection: close")
	}
}

func TestComputeKeepAliveCaseInsensitive(t *testing.T) {
	d := New()
	d.Header.Set("Connection", "Close")
	d.ComputeKeepAlive()
	if d.IsKeepAlive {
		t.Fatalf("expected keep-alive false for Connection: Close (case-insensitive)")
	}
}

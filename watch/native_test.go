package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNative_DetectsCreate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	n, err := NewNative([]string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = n.Close() }()

	target := filepath.Join(dir, "module.py")

	err = os.WriteFile(target, []byte("a = 1\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := collectEvent(t, n, target, 5*time.Second)
	if ev.Op != Create && ev.Op != Write {
		t.Fatalf("op = %v, want create or write", ev.Op)
	}
}

func TestNative_CloseReturnsWithFullBufferAndNoConsumer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	n, err := NewNative([]string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Well past the event buffer, with nothing reading.
	for i := range 80 {
		name := filepath.Join(dir, fmt.Sprintf("f%03d.py", i))

		err = os.WriteFile(name, []byte("x = 1\n"), 0o600)
		if err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	// Give the watcher time to fill the buffer and block on delivery.
	time.Sleep(200 * time.Millisecond)

	closed := make(chan error, 1)

	go func() {
		closed <- n.Close()
	}()

	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("close: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Close() did not return with an unread event backlog")
	}

	// Both channels must end up closed after Close.
	deadline := time.After(3 * time.Second)

	for {
		select {
		case _, ok := <-n.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after Close()")
		}
	}
}

func TestNative_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	n, err := NewNative([]string{t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = n.Close()
	if err != nil {
		t.Fatalf("first close: %v", err)
	}

	err = n.Close()
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestNewNative_NoDirs(t *testing.T) {
	t.Parallel()

	_, err := NewNative(nil)
	if !errors.Is(err, ErrNoDirs) {
		t.Fatalf("err = %v, want ErrNoDirs", err)
	}
}

func TestNewNative_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := NewNative([]string{filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("want error for missing directory")
	}
}

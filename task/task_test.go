package task

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGoDeliversValue(t *testing.T) {
	tk := Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	got, err := tk.Await(context.Background())
	if err != nil {
		t.Fatalf("Await returned error: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if !tk.IsCompleted() {
		t.Fatal("expected task to report completion")
	}
}

func TestGoDeliversError(t *testing.T) {
	want := errors.New("boom")
	tk := Go(context.Background(), func(context.Context) (string, error) {
		return "", want
	})

	if _, err := tk.Await(context.Background()); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	tk := Go(context.Background(), func(context.Context) (int, error) {
		panic("bad input")
	})

	_, err := tk.Await(context.Background())
	if err == nil || !strings.Contains(err.Error(), "bad input") {
		t.Fatalf("expected panic to surface as error, got %v", err)
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	tk := Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := tk.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if tk.IsCompleted() {
		t.Fatal("task should still be pending")
	}

	close(release)
	if got, err := tk.Await(context.Background()); err != nil || got != 1 {
		t.Fatalf("expected (1, nil) after release, got (%d, %v)", got, err)
	}
}

func TestCompletedAndFailed(t *testing.T) {
	if v, err := Completed("ok").Await(context.Background()); err != nil || v != "ok" {
		t.Fatalf("Completed: got (%q, %v)", v, err)
	}

	want := errors.New("nope")
	if _, err := Failed[int](want).Await(context.Background()); !errors.Is(err, want) {
		t.Fatalf("Failed: got %v", err)
	}
}

func TestThenChainsResult(t *testing.T) {
	parent := Completed(20)
	child := Then(parent, func(v int, err error) (string, error) {
		if err != nil {
			return "", err
		}
		if v != 20 {
			return "", errors.New("unexpected parent value")
		}
		return "twenty", nil
	})

	got, err := child.Await(context.Background())
	if err != nil || got != "twenty" {
		t.Fatalf("expected (twenty, nil), got (%q, %v)", got, err)
	}
}

func TestThenSeesParentError(t *testing.T) {
	want := errors.New("parent failed")
	child := Then(Failed[int](want), func(_ int, err error) (int, error) {
		return 0, err
	})

	if _, err := child.Await(context.Background()); !errors.Is(err, want) {
		t.Fatalf("expected parent error, got %v", err)
	}
}

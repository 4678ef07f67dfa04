package pkg

import (
	"context"
	"errors"
	"testing"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var got []string
	_ = bus.Subscribe(ctx, "a", func(ctx context.Context, msg []byte) error {
		got = append(got, "first:"+string(msg))
		return nil
	})
	_ = bus.Subscribe(ctx, "a", func(ctx context.Context, msg []byte) error {
		got = append(got, "second:"+string(msg))
		return nil
	})
	_ = bus.Subscribe(ctx, "b", func(ctx context.Context, msg []byte) error {
		got = append(got, "other")
		return nil
	})

	if err := bus.Publish(ctx, "a", []byte("x")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	want := []string{"first:x", "second:x"}
	if len(got) != len(want) {
		t.Fatalf("delivered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivery[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBusSkipsCancelledSubscribers(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_ = bus.Subscribe(ctx, "a", func(ctx context.Context, msg []byte) error {
		calls++
		return nil
	})
	cancel()

	if err := bus.Publish(context.Background(), "a", nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestBusReturnsHandlerError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	_ = bus.Subscribe(context.Background(), "a", func(ctx context.Context, msg []byte) error {
		return boom
	})

	if err := bus.Publish(context.Background(), "a", nil); !errors.Is(err, boom) {
		t.Errorf("Publish() error = %v, want %v", err, boom)
	}
}

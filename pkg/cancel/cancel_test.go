package cancel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestToken_StartsUncancelled(t *testing.T) {
	t.Parallel()
	tok := New()
	if tok.IsCancelled() {
		t.Fatal("new token reports cancelled")
	}
	if err := tok.Check(); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestToken_CancelIsIdempotent(t *testing.T) {
	t.Parallel()
	tok := New()
	tok.Cancel()
	tok.Cancel()
	if !tok.IsCancelled() {
		t.Fatal("token not cancelled after Cancel")
	}
	if err := tok.Check(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Check() = %v, want ErrCancelled", err)
	}
	select {
	case <-tok.Done():
	default:
		t.Fatal("Done channel not closed")
	}
}

func TestToken_SharedAcrossHolders(t *testing.T) {
	t.Parallel()
	tok := New()
	holders := []*Token{tok, tok, tok}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok.Cancel()
		}()
	}
	wg.Wait()

	for i, h := range holders {
		if !h.IsCancelled() {
			t.Errorf("holder %d does not observe cancellation", i)
		}
	}
}

func TestToken_ContextFollowsToken(t *testing.T) {
	t.Parallel()
	tok := New()
	ctx, release := tok.Context(context.Background())
	defer release()

	tok.Cancel()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after token cancel")
	}
}

func TestToken_ContextReleaseLeavesTokenAlone(t *testing.T) {
	t.Parallel()
	tok := New()
	ctx, release := tok.Context(context.Background())
	release()

	if ctx.Err() == nil {
		t.Fatal("released context should be done")
	}
	if tok.IsCancelled() {
		t.Fatal("releasing the context must not cancel the token")
	}
}

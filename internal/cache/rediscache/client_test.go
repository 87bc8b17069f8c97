package rediscache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), mr.Addr(), WithOpTimeout(time.Second))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RequiresAddr(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatalf("empty address accepted")
	}
}

func TestSetGetDel(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}

	val := []byte(`{"type":"FeatureCollection","features":[]}`)
	if err := c.Set(ctx, "ds:boundaries:test", val, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "ds:boundaries:test")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, val) {
		t.Fatalf("got=%q want %q", got, val)
	}

	if err := c.Del(ctx, "ds:boundaries:test"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "ds:boundaries:test"); ok {
		t.Fatalf("key survives delete")
	}

	// deleting nothing is a no-op, not an error
	if err := c.Del(ctx); err != nil {
		t.Fatalf("empty del: %v", err)
	}
}

func TestSet_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("key survives TTL")
	}
}

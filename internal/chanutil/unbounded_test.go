package chanutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnboundedPreservesOrder(t *testing.T) {
	u := NewUnbounded[int]()

	for i := 0; i < 100; i++ {
		u.Send(i)
	}

	for i := 0; i < 100; i++ {
		select {
		case v := <-u.Out():
			assert.Equal(t, i, v)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for value %d", i)
		}
	}
}

func TestUnboundedMultipleProducers(t *testing.T) {
	u := NewUnbounded[int]()
	const producers = 8
	const perProducer = 50

	for p := 0; p < producers; p++ {
		go func(base int) {
			for i := 0; i < perProducer; i++ {
				u.Send(base + i)
			}
		}(p * perProducer)
	}

	seen := make(map[int]bool)
	for i := 0; i < producers*perProducer; i++ {
		select {
		case v := <-u.Out():
			require.False(t, seen[v], "duplicate value %d", v)
			seen[v] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after receiving %d values", i)
		}
	}
	assert.Len(t, seen, producers*perProducer)
}

func TestUnboundedCloseDrainsBuffer(t *testing.T) {
	u := NewUnbounded[string]()
	u.Send("a")
	u.Send("b")
	u.Close()

	var got []string
	for v := range u.Out() {
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestUnboundedSelectWithTimeout(t *testing.T) {
	u := NewUnbounded[int]()

	select {
	case <-u.Out():
		t.Fatal("expected no value yet")
	case <-time.After(20 * time.Millisecond):
	}

	u.Send(7)
	select {
	case v := <-u.Out():
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("expected value after send")
	}
}

package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	l := New(8)
	counter := 0

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("user-1")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestLocker_IndexIsStable(t *testing.T) {
	l := New(16)

	assert.Equal(t, l.index("42"), l.index("42"))
	assert.Less(t, l.index("42"), 16)
}

func TestNew_DefaultShards(t *testing.T) {
	l := New(0)
	assert.Len(t, l.shards, DefaultShards)
}

package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyMutexSerializesPerKey(t *testing.T) {
	km := NewKeyMutex()

	const workers = 16
	const iterations = 200
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				km.Lock("shared")
				counter++
				km.Unlock("shared")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*iterations, counter)
}

func TestKeyMutexReleasesEntries(t *testing.T) {
	km := NewKeyMutex()

	km.Lock("a")
	km.Lock("b")
	km.Unlock("a")
	km.Unlock("b")

	km.mu.Lock()
	defer km.mu.Unlock()
	require.Empty(t, km.locks)
}

func TestKeyMutexIndependentKeys(t *testing.T) {
	km := NewKeyMutex()
	km.Lock("a")

	// a different key must not block
	done := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()
	<-done

	km.Unlock("a")
}

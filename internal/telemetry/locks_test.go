package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShipmentLocksSerializeSameID(t *testing.T) {
	locks := newShipmentLocks()
	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("s1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.len())
}

func TestShipmentLocksIndependentIDs(t *testing.T) {
	locks := newShipmentLocks()
	unlockA := locks.lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locks.lock("b")
		unlock()
		close(done)
	}()
	<-done
	assert.Equal(t, 1, locks.len())
	unlockA()
	assert.Equal(t, 0, locks.len())
}

package telemetry

import "sync"

// shipmentLocks hands out one mutex per shipment id. Entries are dropped once
// nobody holds or waits on them.
type shipmentLocks struct {
	mu    sync.Mutex
	locks map[string]*shipmentLock
}

type shipmentLock struct {
	sync.Mutex
	refs int
}

func newShipmentLocks() *shipmentLocks {
	return &shipmentLocks{locks: make(map[string]*shipmentLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *shipmentLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.locks[id]
	if !ok {
		sl = &shipmentLock{}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *shipmentLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

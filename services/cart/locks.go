package cart

import "sync"

// cartLocks serializes mutations per cart code: the stored read-then-update
// sequences are not atomic across collaborator calls.
type cartLocks struct {
	mutex sync.Mutex
	locks map[int]*sync.Mutex
}

func newCartLocks() *cartLocks {
	return &cartLocks{
		locks: map[int]*sync.Mutex{},
	}
}

func (l *cartLocks) lock(cartCode int) func() {
	l.mutex.Lock()
	m, exists := l.locks[cartCode]
	if !exists {
		m = &sync.Mutex{}
		l.locks[cartCode] = m
	}
	l.mutex.Unlock()

	m.Lock()
	return m.Unlock
}

package room

import (
	"sync"

	"github.com/sweeparena/sweeparena/internal/model"
)

// keyedMutex provides one mutex per room code so rooms never block each
// other. Check-then-act sequences (room-full check + add, mines-placed
// check + place) run inside a single per-room critical section.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[model.RoomCode]*roomLock
}

type roomLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[model.RoomCode]*roomLock)}
}

// Lock acquires the mutex for code, creating it on first use.
func (k *keyedMutex) Lock(code model.RoomCode) {
	k.mu.Lock()
	l, ok := k.locks[code]
	if !ok {
		l = &roomLock{}
		k.locks[code] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
}

// Unlock releases the mutex for code and frees it when no goroutine is
// waiting, keeping the table bounded by the number of live rooms.
func (k *keyedMutex) Unlock(code model.RoomCode) {
	k.mu.Lock()
	l := k.locks[code]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, code)
	}
	k.mu.Unlock()

	l.Unlock()
}

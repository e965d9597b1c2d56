package cache

import "sync"

// keyLocker hands out one mutex per cache key so that concurrent misses on the same
// key load from the backend once. An entry lives only while someone holds or waits
// for it.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (l *keyLocker) Lock(key string) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*keyLock)
	}
	k, ok := l.locks[key]
	if !ok {
		k = &keyLock{}
		l.locks[key] = k
	}
	k.refs++
	l.mu.Unlock()

	k.Lock()
}

func (l *keyLocker) Unlock(key string) {
	l.mu.Lock()
	k, ok := l.locks[key]
	if !ok {
		l.mu.Unlock()
		return
	}
	k.refs--
	if k.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()

	k.Unlock()
}

// held returns the number of keys currently locked or awaited.
func (l *keyLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

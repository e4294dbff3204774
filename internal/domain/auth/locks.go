package auth

import "sync"

// walletLocks serializes in-flight authentication and profile work per
// wallet while letting different wallets proceed in parallel. Entries are
// reference counted so the map does not grow with every wallet ever seen.
type walletLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newWalletLocks() *walletLocks {
	return &walletLocks{
		entries: make(map[string]*lockEntry),
	}
}

// lock acquires the per-wallet mutex and returns its release function.
func (l *walletLocks) lock(wallet string) func() {
	l.mu.Lock()
	entry, ok := l.entries[wallet]
	if !ok {
		entry = &lockEntry{}
		l.entries[wallet] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, wallet)
		}
		l.mu.Unlock()
	}
}

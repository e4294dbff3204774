package challenge

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	items    map[string]Challenge
	mutex    sync.Mutex
	gcFreq   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewMemory builds an in-memory challenge store with a background GC loop.
func NewMemory(cfg Config) Store {
	gc := time.Minute
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		gc = cfg.Memory.GCInterval
	}
	s := &memoryStore{
		items:  make(map[string]Challenge),
		gcFreq: gc,
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	go s.gcLoop()
	return s
}

func (s *memoryStore) gcLoop() {
	ticker := time.NewTicker(s.gcFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Put(_ context.Context, ch Challenge) error {
	s.mutex.Lock()
	s.items[ch.WalletAddress] = ch
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, wallet string) (Challenge, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch, ok := s.items[wallet]
	if !ok || ch.Expired(s.now()) {
		return Challenge{}, false, nil
	}
	return ch, true, nil
}

func (s *memoryStore) Consume(_ context.Context, wallet string) (Challenge, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch, ok := s.items[wallet]
	if !ok {
		return Challenge{}, false, nil
	}
	delete(s.items, wallet)
	if ch.Expired(s.now()) {
		return Challenge{}, false, nil
	}
	return ch, true, nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) error {
	now := s.now()
	s.mutex.Lock()
	for wallet, ch := range s.items {
		if ch.Expired(now) {
			delete(s.items, wallet)
		}
	}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}

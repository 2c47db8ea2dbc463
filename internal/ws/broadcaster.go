package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"taptoearn/internal/repository"
)

const topSize = 20

// Broadcaster периодически перечитывает топ и шлёт его в хаб, если он изменился
type Broadcaster struct {
	hub      *Hub
	repo     *repository.LeaderboardRepository
	interval time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
	prev   []byte
}

func NewBroadcaster(hub *Hub, repo *repository.LeaderboardRepository, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Broadcaster{
		hub:      hub,
		repo:     repo,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (b *Broadcaster) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				b.tick()
			case <-b.stopCh:
				return
			}
		}
	}()
}

func (b *Broadcaster) Stop() {
	close(b.stopCh)
	b.wg.Wait()
}

func (b *Broadcaster) tick() {
	// nobody listening, skip the query
	if b.hub.Count() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := b.repo.Top(ctx, repository.ScopeWeekly, topSize)
	if err != nil {
		log.Printf("Broadcaster.tick: leaderboard query failed: %v", err)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"type":    "leaderboard",
		"scope":   repository.ScopeWeekly,
		"entries": entries,
	})
	if err != nil {
		return
	}

	if bytes.Equal(payload, b.prev) {
		return
	}
	b.prev = payload
	b.hub.Broadcast(payload)
}

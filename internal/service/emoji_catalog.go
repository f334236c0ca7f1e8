package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/itchan-dev/roomkit/shared/domain"
)

type EmojiSource interface {
	ListCustomEmoji(ctx context.Context) ([]domain.CustomEmoji, error)
}

// EmojiCatalog indexes the server's custom emoji by name and alias.
type EmojiCatalog struct {
	source EmojiSource

	mu     sync.RWMutex
	byName map[string]domain.CustomEmoji
}

func NewEmojiCatalog(source EmojiSource) *EmojiCatalog {
	return &EmojiCatalog{source: source, byName: map[string]domain.CustomEmoji{}}
}

// Refresh replaces the catalog with the current server list. On error the
// previous catalog stays in place.
func (c *EmojiCatalog) Refresh(ctx context.Context) error {
	emojis, err := c.source.ListCustomEmoji(ctx)
	if err != nil {
		return fmt.Errorf("failed to list custom emoji: %w", err)
	}
	byName := make(map[string]domain.CustomEmoji, len(emojis))
	for _, e := range emojis {
		for _, alias := range e.Aliases {
			if _, taken := byName[alias]; !taken {
				byName[alias] = e
			}
		}
	}
	// names win over aliases
	for _, e := range emojis {
		byName[e.Name] = e
	}

	c.mu.Lock()
	c.byName = byName
	c.mu.Unlock()
	return nil
}

// Lookup matches the markdown.RenderContext.CustomEmoji signature.
func (c *EmojiCatalog) Lookup(name string) (domain.CustomEmoji, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byName[name]
	return e, ok
}

func (c *EmojiCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}

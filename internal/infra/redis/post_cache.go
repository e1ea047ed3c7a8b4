package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"studyring-service/internal/app"
	"studyring-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// PostCache wraps a PostRepository and caches single posts in Redis as JSON:
// SET post:{postID} {json}. Quiz posts are immutable, so a cached entry can
// only age out, never go stale. Writes and listings pass straight through.
type PostCache struct {
	client *redis.Client
	inner  app.PostRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewPostCache(client *redis.Client, inner app.PostRepository, ttl time.Duration) *PostCache {
	return &PostCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PostCache) CreatePost(ctx context.Context, post domain.Post) error {
	return c.inner.CreatePost(ctx, post)
}

func (c *PostCache) ListPosts(ctx context.Context, groupID string) ([]domain.Post, error) {
	return c.inner.ListPosts(ctx, groupID)
}

func (c *PostCache) GetPost(ctx context.Context, postID string) (domain.Post, error) {
	key := c.key(postID)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var post domain.Post
		if err := json.Unmarshal(raw, &post); err == nil {
			return post, nil
		}
		// Undecodable entry: fall through and refill from the source of truth.
	}

	result, err, _ := c.sf.Do(postID, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var post domain.Post
			if err := json.Unmarshal(raw, &post); err == nil {
				return post, nil
			}
		}

		post, err := c.inner.GetPost(ctx, postID)
		if err != nil {
			return domain.Post{}, err
		}
		if raw, err := json.Marshal(post); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return post, nil
	})
	if err != nil {
		return domain.Post{}, err
	}
	return result.(domain.Post), nil
}

func (c *PostCache) key(postID string) string {
	return "post:" + postID
}

func (c *PostCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

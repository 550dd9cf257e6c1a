package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"xenon-assistant/internal/models"
)

type sessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func newRedisRepo(t *testing.T) (*RedisSessionRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionRepo(client), mr
}

func sessionStores(t *testing.T) map[string]sessionStore {
	redisRepo, _ := newRedisRepo(t)
	return map[string]sessionStore{
		"memory": NewMemorySessionRepo(),
		"redis":  redisRepo,
	}
}

func TestSessionRepo_Lifecycle(t *testing.T) {
	for name, repo := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := models.NewSession()

			if err := repo.Create(ctx, sess); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if err := repo.Create(ctx, sess); err == nil {
				t.Fatal("expected duplicate create to fail")
			}

			updated, err := repo.Update(ctx, sess.ID, func(s *models.Session) error {
				s.Append(models.ChatMessage{Role: models.RoleUser, Content: "What is RSI?"})
				s.Generating = true
				return nil
			})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if len(updated.Transcript) != 1 || !updated.Generating {
				t.Fatalf("unexpected update result %+v", updated)
			}

			got, err := repo.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Transcript[0].Content != "What is RSI?" || !got.Generating {
				t.Fatalf("update not persisted: %+v", got)
			}

			if err := repo.Delete(ctx, sess.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := repo.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestSessionRepo_FailedUpdateIsDiscarded(t *testing.T) {
	for name, repo := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := models.NewSession()
			repo.Create(ctx, sess)

			boom := errors.New("boom")
			_, err := repo.Update(ctx, sess.ID, func(s *models.Session) error {
				s.Append(models.ChatMessage{Role: models.RoleUser, Content: "lost"})
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected fn error, got %v", err)
			}

			got, _ := repo.Get(ctx, sess.ID)
			if len(got.Transcript) != 0 {
				t.Fatal("failed update must not be stored")
			}

			if _, err := repo.Update(ctx, uuid.New(), func(*models.Session) error { return nil }); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
			}
		})
	}
}

func TestSessionRepo_ConcurrentUpdates(t *testing.T) {
	for name, repo := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := models.NewSession()
			repo.Create(ctx, sess)

			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					repo.Update(ctx, sess.ID, func(s *models.Session) error {
						s.Append(models.ChatMessage{Role: models.RoleUser, Content: "q"})
						return nil
					})
				}()
			}
			wg.Wait()

			got, _ := repo.Get(ctx, sess.ID)
			if len(got.Transcript) == 0 || len(got.Transcript) > 4 {
				t.Fatalf("unexpected transcript length %d", len(got.Transcript))
			}
		})
	}
}

func TestMemorySessionRepo_ReturnsCopies(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()
	sess := models.NewSession()
	repo.Create(ctx, sess)

	got, _ := repo.Get(ctx, sess.ID)
	got.Transcript = append(got.Transcript, models.ChatMessage{Role: models.RoleUser, Content: "mutated"})

	again, _ := repo.Get(ctx, sess.ID)
	if len(again.Transcript) != 0 {
		t.Fatal("callers must not be able to mutate stored sessions")
	}
}

func TestMemorySessionRepo_Prune(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()

	stale := models.NewSession()
	stale.UpdatedAt = time.Now().UTC().Add(-48 * time.Hour)
	fresh := models.NewSession()
	repo.Create(ctx, stale)
	repo.Create(ctx, fresh)

	if n := repo.Prune(24 * time.Hour); n != 1 {
		t.Fatalf("expected 1 pruned session, got %d", n)
	}
	if _, err := repo.Get(ctx, stale.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected stale session to be removed")
	}
	if _, err := repo.Get(ctx, fresh.ID); err != nil {
		t.Fatal("expected fresh session to remain")
	}
}

func TestRedisSessionRepo_SlidingTTL(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()
	sess := models.NewSession()
	repo.Create(ctx, sess)

	key := sessionKey(sess.ID)
	if ttl := mr.TTL(key); ttl != sessionTTL {
		t.Fatalf("expected TTL %v, got %v", sessionTTL, ttl)
	}

	mr.FastForward(time.Hour)
	repo.Update(ctx, sess.ID, func(s *models.Session) error { return nil })
	if ttl := mr.TTL(key); ttl != sessionTTL {
		t.Fatalf("expected TTL refreshed to %v, got %v", sessionTTL, ttl)
	}

	mr.FastForward(sessionTTL + time.Second)
	if _, err := repo.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

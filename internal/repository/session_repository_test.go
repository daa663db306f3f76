package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speaker-negotiator/internal/model"
)

func newTestSession(id string) *model.Session {
	now := time.Now()
	return &model.Session{
		ID:        id,
		Status:    model.SessionOpen,
		Turns:     []model.Turn{{Speaker: model.SpeakerBot, Text: "welcome", At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newRedisRepo(t *testing.T) (SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepository(client, time.Hour), mr
}

// 两种实现共享同一组行为测试
func forEachStore(t *testing.T, fn func(t *testing.T, repo SessionRepository)) {
	t.Run("redis", func(t *testing.T) {
		repo, _ := newRedisRepo(t)
		fn(t, repo)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemorySessionRepository(time.Hour))
	})
}

func TestSessionRepository_CreateGetDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo SessionRepository) {
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTestSession("s1")))
		assert.ErrorIs(t, repo.Create(ctx, newTestSession("s1")), ErrSessionExists)

		got, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", got.ID)
		assert.Equal(t, model.SessionOpen, got.Status)
		require.Len(t, got.Turns, 1)
		assert.Equal(t, "welcome", got.Turns[0].Text)

		require.NoError(t, repo.Delete(ctx, "s1"))
		_, err = repo.Get(ctx, "s1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.NoError(t, repo.Delete(ctx, "s1"))
	})
}

func TestSessionRepository_Update(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo SessionRepository) {
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTestSession("s2")))

		updated, err := repo.Update(ctx, "s2", func(s *model.Session) error {
			s.AppendTurns(10, model.Turn{Speaker: model.SpeakerUser, Text: "120?"})
			s.BestOffer = 120
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, updated.Turns, 2)

		got, err := repo.Get(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, 120, got.BestOffer)
		assert.Len(t, got.Turns, 2)
	})
}

func TestSessionRepository_UpdateErrorDiscardsChanges(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo SessionRepository) {
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTestSession("s3")))

		boom := errors.New("boom")
		_, err := repo.Update(ctx, "s3", func(s *model.Session) error {
			s.Status = model.SessionAgreed
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repo.Get(ctx, "s3")
		require.NoError(t, err)
		assert.Equal(t, model.SessionOpen, got.Status)

		_, err = repo.Update(ctx, "missing", func(*model.Session) error { return nil })
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionRepository_SessionsAreIsolated(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo SessionRepository) {
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTestSession("a")))
		require.NoError(t, repo.Create(ctx, newTestSession("b")))

		_, err := repo.Update(ctx, "a", func(s *model.Session) error {
			s.AgreedPrice = 100
			return nil
		})
		require.NoError(t, err)

		b, err := repo.Get(ctx, "b")
		require.NoError(t, err)
		assert.Zero(t, b.AgreedPrice)
	})
}

func TestRedisSessionRepository_TTL(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTestSession("ttl")))
	assert.Equal(t, time.Hour, mr.TTL(sessionKey("ttl")))

	mr.FastForward(2 * time.Hour)
	_, err := repo.Get(ctx, "ttl")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepository_Expiry(t *testing.T) {
	repo := NewMemorySessionRepository(time.Minute).(*memorySessionRepository)
	now := time.Now()
	repo.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTestSession("m")))

	now = now.Add(2 * time.Minute)
	_, err := repo.Get(ctx, "m")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepository_CreateSweepsExpired(t *testing.T) {
	repo := NewMemorySessionRepository(time.Minute).(*memorySessionRepository)
	now := time.Now()
	repo.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTestSession("old-1")))
	require.NoError(t, repo.Create(ctx, newTestSession("old-2")))

	now = now.Add(30 * time.Second)
	require.NoError(t, repo.Create(ctx, newTestSession("recent")))

	now = now.Add(45 * time.Second)
	require.NoError(t, repo.Create(ctx, newTestSession("new")))

	assert.Len(t, repo.sessions, 2)
	assert.Contains(t, repo.sessions, "recent")
	assert.Contains(t, repo.sessions, "new")
}

func TestMemorySessionRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemorySessionRepository(0)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTestSession("c")))

	got, err := repo.Get(ctx, "c")
	require.NoError(t, err)
	got.Turns[0].Text = "mutated"

	again, err := repo.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "welcome", again.Turns[0].Text)
}

package maintenance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-api/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScheduler_RegisterAndRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	ran := 0
	err := s.Register("counter", "@hourly", func(ctx context.Context) error {
		ran++
		return nil
	})
	require.NoError(t, err)

	err = s.Register("counter", "@hourly", func(ctx context.Context) error { return nil })
	assert.Error(t, err, "duplicate name must be rejected")

	err = s.Register("broken", "not-a-cron-expr", func(ctx context.Context) error { return nil })
	assert.Error(t, err, "bad schedule must be rejected")

	require.NoError(t, s.RunNow("counter"))
	assert.Equal(t, 1, ran)

	assert.Error(t, s.RunNow("missing"))
}

func TestScheduler_JobFailureIsRecorded(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.Register("flaky", "@hourly", func(ctx context.Context) error {
		return errors.New("disk on fire")
	})
	require.NoError(t, err)
	require.NoError(t, s.RunNow("flaky"))

	j := s.jobs["flaky"]
	assert.Equal(t, "error", j.lastStatus)
	assert.Equal(t, "disk on fire", j.lastError)
	assert.False(t, j.lastRunAt.IsZero())

	// A later success clears the error.
	j.run = func(ctx context.Context) error { return nil }
	require.NoError(t, s.RunNow("flaky"))
	assert.Equal(t, "ok", j.lastStatus)
	assert.Empty(t, j.lastError)
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := New(zerolog.Nop())
	s.Start()
	s.Start()
	s.Stop(time.Second)
	s.Stop(time.Second)
}

func TestPurgeRefreshTokensJob(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, st.CreateUser(ctx, &store.User{
		ID: "u1", Email: "u@example.com", PasswordHash: "x",
		CreatedAt: now, UpdatedAt: now,
	}))
	for _, tok := range []*store.RefreshToken{
		{Token: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour), CreatedAt: now},
		{Token: "dead", UserID: "u1", ExpiresAt: now.Add(-time.Hour), CreatedAt: now},
	} {
		require.NoError(t, st.CreateRefreshToken(ctx, tok))
	}

	require.NoError(t, PurgeRefreshTokens(st, zerolog.Nop())(ctx))

	_, err := st.GetRefreshToken(ctx, "live")
	assert.NoError(t, err, "live token must survive the purge")
}

func TestSweepOrphanUploadsJob(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	now := time.Now().UTC()
	require.NoError(t, st.CreateUser(ctx, &store.User{
		ID: "u1", Email: "u@example.com", PasswordHash: "x",
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, st.CreateUpload(ctx, &store.Upload{
		ID: "up1", UserID: "u1", Filename: "known.png", Original: "logo.png",
		MIMEType: "image/png", SizeBytes: 4, CreatedAt: now,
	}))

	old := now.Add(-48 * time.Hour)
	for _, name := range []string{"known.png", "orphan.png", "fresh.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
		if name != "fresh.png" {
			require.NoError(t, os.Chtimes(path, old, old))
		}
	}

	require.NoError(t, SweepOrphanUploads(st, dir, zerolog.Nop())(ctx))

	_, err := os.Stat(filepath.Join(dir, "known.png"))
	assert.NoError(t, err, "referenced file must survive")
	_, err = os.Stat(filepath.Join(dir, "fresh.png"))
	assert.NoError(t, err, "recent file must survive")
	_, err = os.Stat(filepath.Join(dir, "orphan.png"))
	assert.True(t, os.IsNotExist(err), "orphan must be removed")

	// A missing uploads dir is not an error.
	assert.NoError(t, SweepOrphanUploads(st, filepath.Join(dir, "nope"), zerolog.Nop())(ctx))
}

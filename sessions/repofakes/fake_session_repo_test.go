package fakesessionrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
	fakesessionrepo "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

func TestFakeSessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakesessionrepo.NewFakeSessionRepo(fakesessionrepo.WithCallLog())

	_, err := repo.Get(ctx, "primary", "alice")
	require.ErrorIs(t, err, sessions.ErrNotFound)

	require.NoError(t, repo.Put(ctx, "primary", &sessions.Record{Username: "alice", SessionID: "s1"}))

	got, err := repo.Get(ctx, "primary", "alice")
	require.NoError(t, err)
	require.Equal(t, "s1", got.SessionID)

	// returned records are copies
	got.SessionID = "changed"
	again, err := repo.Get(ctx, "primary", "alice")
	require.NoError(t, err)
	require.Equal(t, "s1", again.SessionID)

	now := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, repo.Update(ctx, "primary", "alice", sessions.Update{LastActivityTime: now}))
	again, err = repo.Get(ctx, "primary", "alice")
	require.NoError(t, err)
	require.Equal(t, now, again.LastActivityTime)

	require.ErrorIs(t, repo.Update(ctx, "secondary", "alice", sessions.Update{}), sessions.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "primary", "alice"))
	require.NoError(t, repo.Delete(ctx, "primary", "alice"))
	_, err = repo.Get(ctx, "primary", "alice")
	require.ErrorIs(t, err, sessions.ErrNotFound)

	require.Equal(t, []string{
		"get primary alice",
		"put primary alice",
		"get primary alice",
		"get primary alice",
		"update primary alice",
		"get primary alice",
		"update secondary alice",
		"delete primary alice",
		"delete primary alice",
		"get primary alice",
	}, repo.Calls())
}

func TestFakeSessionRepo_FailOn(t *testing.T) {
	repo := fakesessionrepo.NewFakeSessionRepo()
	boom := errors.New("boom")
	repo.FailOn("get", "secondary", boom)

	_, err := repo.Get(context.Background(), "secondary", "alice")
	require.ErrorIs(t, err, boom)
}

func TestFakeSessionRepo_NoCallLogByDefault(t *testing.T) {
	ctx := context.Background()
	repo := fakesessionrepo.NewFakeSessionRepo()
	require.NoError(t, repo.Put(ctx, "primary", &sessions.Record{Username: "alice", SessionID: "s1"}))

	for range 1000 {
		_, err := repo.Get(ctx, "primary", "alice")
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, "primary", "alice", sessions.Update{LastActivityTime: time.Now()}))
	}
	require.Empty(t, repo.Calls())
}

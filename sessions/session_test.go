package sessions_test

import (
	"testing"
	"time"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
	"github.com/stretchr/testify/require"
)

func TestRecord_Phase(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		require.Equal(t, sessions.PhaseEmpty, (&sessions.Record{}).Phase())
	})

	t.Run("id token", func(t *testing.T) {
		r := &sessions.Record{Credential: sessions.IDTokenCredential{IDToken: "id"}}
		require.Equal(t, sessions.PhaseAwaitingIDTokenExchange, r.Phase())
	})

	t.Run("code", func(t *testing.T) {
		r := &sessions.Record{Credential: sessions.AuthorizationCodeCredential{Code: "c"}}
		require.Equal(t, sessions.PhaseAwaitingCodeExchange, r.Phase())
	})

	t.Run("token wins over credential", func(t *testing.T) {
		r := &sessions.Record{
			Token:      &sessions.UpstreamToken{AccessToken: "tok"},
			Credential: sessions.IDTokenCredential{IDToken: "id"},
		}
		require.Equal(t, sessions.PhaseActiveToken, r.Phase())
	})
}

func TestRecord_Apply(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := &sessions.Record{
		Username:   "alice",
		SessionID:  "s1",
		Credential: sessions.IDTokenCredential{IDToken: "id"},
	}

	r.Apply(sessions.Update{
		LastActivityTime: now,
		Token:            &sessions.UpstreamToken{AccessToken: "tok", ExpiresAt: now.Add(time.Hour)},
		ClearCredential:  true,
	})

	require.Equal(t, now, r.LastActivityTime)
	require.Equal(t, "tok", r.Token.AccessToken)
	require.Nil(t, r.Credential)
	require.Equal(t, "s1", r.SessionID)
}

func TestStoredRecord_Conversion(t *testing.T) {
	expires := time.Unix(1_700_003_600, 0)
	activity := time.UnixMilli(1_700_000_000_123)
	r := &sessions.Record{
		Username:         "alice",
		SessionID:        "s1",
		Token:            &sessions.UpstreamToken{AccessToken: "tok", RefreshToken: "ref", ExpiresAt: expires},
		LastActivityTime: activity,
		SelectedRole:     &sessions.SelectedRole{RoleID: "r1", OrgCode: "A83008"},
	}

	s := r.ToStored()
	require.Equal(t, int64(1_700_003_600), s.UpstreamExpiresAt)
	require.Equal(t, int64(1_700_000_000_123), s.LastActivityTime)

	back := s.Record()
	require.Equal(t, r, back)

	code := sessions.StoredRecord{Username: "Mock_bob", IdentityAuthorizationCode: "abc"}.Record()
	require.Equal(t, sessions.AuthorizationCodeCredential{Code: "abc"}, code.Credential)
	require.Nil(t, code.Token)
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := &sessions.Record{
		Token:        &sessions.UpstreamToken{AccessToken: "tok"},
		SelectedRole: &sessions.SelectedRole{RoleID: "r1"},
	}
	c := r.Clone()
	c.Token.AccessToken = "other"
	c.SelectedRole.RoleID = "r2"

	require.Equal(t, "tok", r.Token.AccessToken)
	require.Equal(t, "r1", r.SelectedRole.RoleID)
}

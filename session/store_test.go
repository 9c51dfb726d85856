package session_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honesttravel/session"
)

// providers returns every Store implementation so the contract tests run
// against each of them.
func providers(t *testing.T) map[string]session.Provider {
	t.Helper()
	bp, err := session.OpenBadger("", 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bp.Close() })

	return map[string]session.Provider{
		"memory": session.NewMemoryProvider(),
		"badger": bp,
	}
}

func TestStore_roundTrip(t *testing.T) {
	ctx := context.Background()
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			s := p.Open("s1")

			values := map[string]string{
				session.KeyCity:      "Tokyo",
				session.KeyTravelers: strconv.Itoa(2),
				session.KeyStartDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC).Format(session.DateLayout),
				session.KeyEndDate:   "2025-05-10",
			}
			for k, v := range values {
				require.NoError(t, s.Set(ctx, k, v))
			}

			// a fresh handle for the same ID sees the same values
			again := p.Open("s1")
			for k, want := range values {
				got, ok, err := again.Get(ctx, k)
				require.NoError(t, err)
				assert.True(t, ok, k)
				assert.Equal(t, want, got, k)
			}
		})
	}
}

func TestStore_absentAndOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			s := p.Open("s1")

			_, ok, err := s.Get(ctx, session.KeyCity)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, session.KeyCity, "Paris"))
			require.NoError(t, s.Set(ctx, session.KeyCity, "Lyon"))
			got, _, err := s.Get(ctx, session.KeyCity)
			require.NoError(t, err)
			assert.Equal(t, "Lyon", got)

			assert.ErrorIs(t, s.Set(ctx, "", "x"), session.ErrInvalidKey)
		})
	}
}

func TestStore_sessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.Open("a").Set(ctx, session.KeyCity, "Rome"))

			_, ok, err := p.Open("b").Get(ctx, session.KeyCity)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_clearOnlyNamedKeys(t *testing.T) {
	ctx := context.Background()
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			s := p.Open("s1")
			for _, k := range []string{session.KeyCity, session.KeyStartDate, session.KeyEndDate,
				session.KeyIsLoggedIn, session.KeyUserEmail, session.KeySelectedPackage} {
				require.NoError(t, s.Set(ctx, k, "v"))
			}

			require.NoError(t, s.Clear(ctx, session.AuthKeys...))

			for _, k := range session.AuthKeys {
				_, ok, err := s.Get(ctx, k)
				require.NoError(t, err)
				assert.False(t, ok, k)
			}
			for _, k := range []string{session.KeyCity, session.KeyStartDate, session.KeyEndDate} {
				_, ok, err := s.Get(ctx, k)
				require.NoError(t, err)
				assert.True(t, ok, k)
			}
		})
	}
}

func TestBadger_survivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p, err := session.OpenBadger(dir, time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, p.Open("s1").Set(ctx, session.KeyCity, "Kyoto"))
	require.NoError(t, p.Close())

	p, err = session.OpenBadger(dir, time.Hour, nil)
	require.NoError(t, err)
	defer p.Close()

	got, ok, err := p.Open("s1").Get(ctx, session.KeyCity)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Kyoto", got)
}

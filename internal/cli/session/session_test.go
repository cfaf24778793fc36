package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func ptr[T any](v T) *T { return &v }

var sample = Session{
	ID:             "01HSTUDENT",
	Name:           "Li Wei",
	Phone:          "13800000001",
	IsAdmin:        true,
	EnrollmentYear: 2023,
	ClassNumber:    4,
	TotalHours:     1.5,
	Token:          "header.payload.sig",
}

func backends(t *testing.T) map[string]Backend {
	keyring.MockInit()
	return map[string]Backend{
		"memory":  NewMemoryBackend(),
		"file":    NewFileBackend(t.TempDir()),
		"keyring": NewKeyringBackend(),
	}
}

func TestLoginRoundTrip(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := Open(backend, zerolog.Nop())
			_, ok := store.Current()
			require.False(t, ok)

			require.NoError(t, store.Login(sample))

			reopened := Open(backend, zerolog.Nop())
			got, ok := reopened.Current()
			require.True(t, ok)
			assert.Equal(t, sample, got)

			require.NoError(t, reopened.Logout())
			_, ok = Open(backend, zerolog.Nop()).Current()
			assert.False(t, ok)
		})
	}
}

func TestLogout_WithoutSession(t *testing.T) {
	store := Open(NewMemoryBackend(), zerolog.Nop())
	assert.NoError(t, store.Logout())
	assert.False(t, store.IsAuthenticated())
}

func TestOpen_MalformedData(t *testing.T) {
	for _, raw := range []string{"{not json", `"a string"`, "[1,2]", "null", "{}", `{"name":"Ana"}`} {
		backend := NewMemoryBackend()
		require.NoError(t, backend.Set(StorageKey, raw))

		store := Open(backend, zerolog.Nop())
		_, ok := store.Current()
		assert.False(t, ok, raw)
	}
}

func TestOpen_StoredSessionWithPhoneOnly(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Set(StorageKey, `{"phone":"555","isAdmin":true}`))

	current, ok := Open(backend, zerolog.Nop()).Current()
	require.True(t, ok)
	assert.Equal(t, "555", current.Phone)
	assert.True(t, current.IsAdmin)
}

type failingBackend struct{ *MemoryBackend }

func (f failingBackend) Get(string) (string, error) { return "", errors.New("disk on fire") }
func (f failingBackend) Set(string, string) error   { return errors.New("disk on fire") }

func TestOpen_UnreadableBackend(t *testing.T) {
	store := Open(failingBackend{NewMemoryBackend()}, zerolog.Nop())
	assert.False(t, store.IsAuthenticated())

	err := store.Login(sample)
	assert.Error(t, err)
	assert.False(t, store.IsAuthenticated(), "a failed write leaves the session unchanged")
}

func TestUpdateUser_MergesFields(t *testing.T) {
	backend := NewMemoryBackend()
	store := Open(backend, zerolog.Nop())
	require.NoError(t, store.Login(Session{Phone: "A", IsAdmin: true}))

	require.NoError(t, store.UpdateUser(Update{Phone: ptr("X")}))

	got, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, Session{Phone: "X", IsAdmin: true}, got)

	persisted, ok := Open(backend, zerolog.Nop()).Current()
	require.True(t, ok)
	assert.Equal(t, got, persisted)
}

func TestUpdateUser_NoSession(t *testing.T) {
	backend := NewMemoryBackend()
	store := Open(backend, zerolog.Nop())

	err := store.UpdateUser(Update{Name: ptr("Ghost")})
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, store.IsAuthenticated())

	_, err = backend.Get(StorageKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsAdmin(t *testing.T) {
	store := Open(NewMemoryBackend(), zerolog.Nop())
	assert.False(t, store.IsAdmin())

	require.NoError(t, store.Login(Session{Phone: "1", IsAdmin: false}))
	assert.False(t, store.IsAdmin())

	require.NoError(t, store.UpdateUser(Update{IsAdmin: ptr(true)}))
	assert.True(t, store.IsAdmin())
}

func TestSubscribe(t *testing.T) {
	store := Open(NewMemoryBackend(), zerolog.Nop())

	var calls []string
	unsubscribeFirst := store.Subscribe(func(s Session, ok bool) {
		// listeners may read the store
		current, _ := store.Current()
		assert.Equal(t, current, s)
		if ok {
			calls = append(calls, "first:"+s.Phone)
		} else {
			calls = append(calls, "first:out")
		}
	})
	store.Subscribe(func(s Session, ok bool) {
		calls = append(calls, "second")
	})

	require.NoError(t, store.Login(Session{Phone: "555"}))
	require.NoError(t, store.UpdateUser(Update{Phone: ptr("556")}))
	unsubscribeFirst()
	require.NoError(t, store.Logout())

	assert.Equal(t, []string{"first:555", "second", "first:556", "second", "second"}, calls)
}

func TestFileBackend_MissingKey(t *testing.T) {
	backend := NewFileBackend(t.TempDir())
	_, err := backend.Get(StorageKey)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, backend.Delete(StorageKey), ErrNotFound)
}

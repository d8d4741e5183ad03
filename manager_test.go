package extprefs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, opts ...Option) (*Manager, *MockStorage, *MockCache, *MockLogger) {
	t.Helper()
	storage := NewMockStorage()
	cache := NewMockCache()
	logger := &MockLogger{}
	base := []Option{WithStorage(storage), WithCache(cache), WithLogger(logger)}
	return New(append(base, opts...)...), storage, cache, logger
}

func TestManager_GetReturnsDefault(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)
	ctx := context.Background()

	pref, err := mgr.Get(ctx, "default", KeyPatternsBackups)
	require.NoError(t, err)
	assert.Equal(t, IntValue(5), pref.Value)
	assert.Equal(t, IntValue(5), pref.Default)
	assert.Equal(t, IntType, pref.Type)
	assert.False(t, pref.Overridden)
	assert.True(t, pref.UpdatedAt.IsZero())
}

func TestManager_GetUnknownKey(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)

	_, err := mgr.Get(context.Background(), "default", "extensions.autoproxy2.nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	err = mgr.Set(context.Background(), "default", "extensions.autoproxy2.nonexistent", true)
	assert.ErrorIs(t, err, ErrNotFound)

	err = mgr.Reset(context.Background(), "default", "extensions.autoproxy2.nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_InvalidInput(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Get(ctx, "", KeyEnabled)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = mgr.Get(ctx, "p", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, mgr.Set(ctx, "", KeyEnabled, true), ErrInvalidInput)
	assert.ErrorIs(t, mgr.Reset(ctx, "p", ""), ErrInvalidInput)
	_, err = mgr.GetAll(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = mgr.GetByPrefix(ctx, "p", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = mgr.Import(ctx, "", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestManager_SetAndGet(t *testing.T) {
	mgr, storage, cache, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Set(ctx, "alice", KeyEnabled, false))
	require.NoError(t, mgr.Set(ctx, "alice", KeyPatternsBackups, 10))
	require.NoError(t, mgr.Set(ctx, "alice", KeyDataDirectory, "proxy"))

	pref, err := mgr.Get(ctx, "alice", KeyEnabled)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(false), pref.Value)
	assert.Equal(t, BoolValue(true), pref.Default)
	assert.True(t, pref.Overridden)
	assert.False(t, pref.UpdatedAt.IsZero())

	stored, err := storage.Get(ctx, "alice", KeyPatternsBackups)
	require.NoError(t, err)
	assert.Equal(t, IntValue(10), stored.Value)
	assert.True(t, cache.has(cacheKey("alice", KeyPatternsBackups)))

	// Other profiles still see the declared default.
	pref, err = mgr.Get(ctx, "bob", KeyEnabled)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), pref.Value)
	assert.False(t, pref.Overridden)

	// The registry itself is never modified.
	v, err := mgr.Registry().Get(KeyEnabled)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), v)
}

func TestManager_SetRejectsTypeChange(t *testing.T) {
	mgr, storage, _, _ := newTestManager(t)
	ctx := context.Background()

	assert.ErrorIs(t, mgr.Set(ctx, "alice", KeyEnabled, "false"), ErrTypeMismatch)
	assert.ErrorIs(t, mgr.Set(ctx, "alice", KeyPatternsBackups, true), ErrTypeMismatch)
	assert.ErrorIs(t, mgr.Set(ctx, "alice", KeyRecentReports, 0), ErrTypeMismatch)
	assert.ErrorIs(t, mgr.Set(ctx, "alice", KeyPatternsBackups, 2.5), ErrInvalidValue)
	assert.ErrorIs(t, mgr.Set(ctx, "alice", KeyPatternsBackups, -1), ErrInvalidValue)
	assert.ErrorIs(t, mgr.Set(ctx, "alice", KeyRecentReports, "{"), ErrInvalidValue)

	all, err := storage.GetAll(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestManager_WithValidator(t *testing.T) {
	onlyHTTPS := func(v Value) error {
		if s, _ := v.AsString(); !strings.HasPrefix(s, "https://") {
			return ErrInvalidValue
		}
		return nil
	}
	mgr, _, _, _ := newTestManager(t, WithValidator(KeySubscriptionsListURL, onlyHTTPS))
	ctx := context.Background()

	assert.ErrorIs(t, mgr.Set(ctx, "alice", KeySubscriptionsListURL, "http://example.com/list.xml"), ErrInvalidValue)
	assert.NoError(t, mgr.Set(ctx, "alice", KeySubscriptionsListURL, "https://example.com/list.xml"))
}

func TestManager_Reset(t *testing.T) {
	mgr, _, cache, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Set(ctx, "alice", KeyComposerDefault, 1))
	require.NoError(t, mgr.Reset(ctx, "alice", KeyComposerDefault))
	assert.False(t, cache.has(cacheKey("alice", KeyComposerDefault)))

	pref, err := mgr.Get(ctx, "alice", KeyComposerDefault)
	require.NoError(t, err)
	assert.Equal(t, IntValue(2), pref.Value)
	assert.False(t, pref.Overridden)

	// Idempotent.
	assert.NoError(t, mgr.Reset(ctx, "alice", KeyComposerDefault))
}

func TestManager_CacheHit(t *testing.T) {
	mgr, storage, cache, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Set(ctx, "alice", KeySaveStats, false))
	require.NoError(t, storage.Close())

	// Storage is closed, so only the cache can answer.
	pref, err := mgr.Get(ctx, "alice", KeySaveStats)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(false), pref.Value)
	assert.Equal(t, 1, cache.hits)
}

func TestManager_CacheWithWrongTypeIsIgnored(t *testing.T) {
	mgr, storage, cache, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, cacheKey("alice", KeySaveStats), []byte(`{"profile":"alice","key":"`+KeySaveStats+`","value":"yes"}`), time.Minute))
	storage.put(&Override{Profile: "alice", Key: KeySaveStats, Value: BoolValue(false)})

	pref, err := mgr.Get(ctx, "alice", KeySaveStats)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(false), pref.Value)
}

func TestManager_StoredOverrideWithWrongTypeIsIgnored(t *testing.T) {
	mgr, storage, _, logger := newTestManager(t)
	ctx := context.Background()

	storage.put(&Override{Profile: "alice", Key: KeyPatternsBackups, Value: StringValue("five")})

	pref, err := mgr.Get(ctx, "alice", KeyPatternsBackups)
	require.NoError(t, err)
	assert.Equal(t, IntValue(5), pref.Value)
	assert.False(t, pref.Overridden)
	assert.True(t, logger.contains("mismatched type"))

	all, err := mgr.GetAll(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, all[KeyPatternsBackups].Overridden)
}

func TestManager_CacheFailuresAreNotSurfaced(t *testing.T) {
	mgr, _, cache, logger := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, cache.Close())

	require.NoError(t, mgr.Set(ctx, "alice", KeyEnabled, false))
	pref, err := mgr.Get(ctx, "alice", KeyEnabled)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(false), pref.Value)
	assert.True(t, logger.contains("Failed to cache override"))
}

func TestManager_StorageErrors(t *testing.T) {
	mgr, storage, _, _ := newTestManager(t)
	ctx := context.Background()

	storage.SetSetError(errors.New("write failed"))
	assert.EqualError(t, mgr.Set(ctx, "alice", KeyEnabled, false), "write failed")

	require.NoError(t, storage.Close())
	_, err := mgr.GetAll(ctx, "alice")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = mgr.Get(ctx, "alice", KeyEnabled)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestManager_ReadOnlyWithoutStorage(t *testing.T) {
	mgr := New(WithLogger(&MockLogger{}))
	ctx := context.Background()

	pref, err := mgr.Get(ctx, "alice", KeyEnabled)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), pref.Value)

	assert.ErrorIs(t, mgr.Set(ctx, "alice", KeyEnabled, false), ErrStorageUnavailable)
	assert.ErrorIs(t, mgr.Reset(ctx, "alice", KeyEnabled), ErrStorageUnavailable)
	_, err = mgr.Import(ctx, "alice", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	all, err := mgr.GetAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, Defaults().Len())

	subs, err := mgr.GetByPrefix(ctx, "alice", Namespace+"subscriptions_")
	require.NoError(t, err)
	assert.Len(t, subs, 6)
}

func TestManager_CustomRegistry(t *testing.T) {
	reg, err := NewRegistry(Entry{Key: "app.theme", Default: StringValue("dark")})
	require.NoError(t, err)
	mgr, _, _, _ := newTestManager(t, WithRegistry(reg))

	pref, err := mgr.Get(context.Background(), "alice", "app.theme")
	require.NoError(t, err)
	assert.Equal(t, StringValue("dark"), pref.Value)

	_, err = mgr.Get(context.Background(), "alice", KeyEnabled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_GetAllAndPrefix(t *testing.T) {
	mgr, storage, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Set(ctx, "alice", KeySubscriptionsAutoUpdate, false))
	require.NoError(t, mgr.Set(ctx, "alice", KeyEnabled, false))
	// An override for a key that is no longer declared is ignored.
	storage.put(&Override{Profile: "alice", Key: Namespace + "retired", Value: BoolValue(true)})

	all, err := mgr.GetAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, 32)
	assert.True(t, all[KeyEnabled].Overridden)
	assert.Equal(t, BoolValue(false), all[KeySubscriptionsAutoUpdate].Value)
	assert.False(t, all[KeySaveStats].Overridden)
	assert.NotContains(t, all, Namespace+"retired")

	subs, err := mgr.GetByPrefix(ctx, "alice", Namespace+"subscriptions_")
	require.NoError(t, err)
	assert.Len(t, subs, 6)
	assert.True(t, subs[KeySubscriptionsAutoUpdate].Overridden)
	assert.NotContains(t, subs, KeyEnabled)

	overrides, err := mgr.Overrides(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, overrides, 3)
}

func TestManager_ImportExport(t *testing.T) {
	mgr, _, _, logger := newTestManager(t)
	ctx := context.Background()

	src := `// exported by the browser
user_pref("extensions.autoproxy2.savestats", false);
user_pref("extensions.autoproxy2.patternsbackups", 3);
user_pref("extensions.autoproxy2.somethingelse", 1);
pref("services.sync.engine.autoproxy2", true);
`
	n, err := mgr.Import(ctx, "alice", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, logger.contains("Skipping undeclared preference"))

	pref, err := mgr.Get(ctx, "alice", KeySyncEngine)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), pref.Value)

	var buf bytes.Buffer
	require.NoError(t, mgr.Export(ctx, "alice", &buf))
	expected := "user_pref(\"extensions.autoproxy2.patternsbackups\", 3);\n" +
		"user_pref(\"extensions.autoproxy2.savestats\", false);\n" +
		"user_pref(\"services.sync.engine.autoproxy2\", true);\n"
	assert.Equal(t, expected, buf.String())

	// Re-importing the export into a new profile reproduces the overrides.
	n, err = mgr.Import(ctx, "bob", &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestManager_ImportIsAllOrNothing(t *testing.T) {
	mgr, storage, _, _ := newTestManager(t)
	ctx := context.Background()

	src := "user_pref(\"extensions.autoproxy2.savestats\", false);\n" +
		"user_pref(\"extensions.autoproxy2.patternsbackups\", \"3\");\n"
	_, err := mgr.Import(ctx, "alice", strings.NewReader(src))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 0, storage.sets)

	_, err = mgr.Import(ctx, "alice", strings.NewReader("user_pref(oops);\n"))
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestManager_ImportRestoresOnStorageFailure(t *testing.T) {
	mgr, storage, cache, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Set(ctx, "alice", KeyPatternsBackups, 9))
	storage.SetSetErrorFor(KeySyncEngine, errors.New("disk full"))

	src := "user_pref(\"extensions.autoproxy2.savestats\", false);\n" +
		"user_pref(\"extensions.autoproxy2.patternsbackups\", 3);\n" +
		"user_pref(\"services.sync.engine.autoproxy2\", true);\n"
	n, err := mgr.Import(ctx, "alice", strings.NewReader(src))
	require.EqualError(t, err, "disk full")
	assert.Equal(t, 0, n)

	overrides, err := mgr.Overrides(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, IntValue(9), overrides[KeyPatternsBackups].Value)
	assert.False(t, cache.has(cacheKey("alice", KeySaveStats)))

	pref, err := mgr.Get(ctx, "alice", KeyPatternsBackups)
	require.NoError(t, err)
	assert.Equal(t, IntValue(9), pref.Value)
}

func TestManager_SetRejectsInvalidUTF8(t *testing.T) {
	mgr, storage, _, _ := newTestManager(t)

	err := mgr.Set(context.Background(), "alice", KeyDataDirectory, "dir\xff")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, 0, storage.sets)
}

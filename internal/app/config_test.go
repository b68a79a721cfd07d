package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPlatformDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		env      map[string]string
		wantAddr string
		wantDB   string
		wantURL  string
	}{
		{
			name:     "NoEnv",
			cfg:      Config{Addr: defaultAddr},
			wantAddr: defaultAddr,
		},
		{
			name:     "PortOverridesDefaultAddr",
			cfg:      Config{Addr: defaultAddr},
			env:      map[string]string{"PORT": "9000"},
			wantAddr: "0.0.0.0:9000",
		},
		{
			name:     "PortIgnoredWhenAddrSet",
			cfg:      Config{Addr: "127.0.0.1:7000"},
			env:      map[string]string{"PORT": "9000"},
			wantAddr: "127.0.0.1:7000",
		},
		{
			name: "PlatformURLs",
			cfg:  Config{Addr: defaultAddr},
			env: map[string]string{
				"DATABASE_URL": "postgres://db/kas",
				"REDIS_URL":    "redis://cache:6379/2",
			},
			wantAddr: defaultAddr,
			wantDB:   "postgres://db/kas",
			wantURL:  "redis://cache:6379/2",
		},
		{
			name: "ExplicitURLsWin",
			cfg: Config{Addr: defaultAddr, Storage: StorageConfig{
				DatabaseURL: "postgres://mine/kas",
				Redis:       RedisConfig{URL: "redis://mine:6379"},
			}},
			env: map[string]string{
				"DATABASE_URL": "postgres://db/kas",
				"REDIS_URL":    "redis://cache:6379/2",
			},
			wantAddr: defaultAddr,
			wantDB:   "postgres://mine/kas",
			wantURL:  "redis://mine:6379",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.applyPlatformDefaults(func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.wantAddr, cfg.Addr)
			assert.Equal(t, tt.wantDB, cfg.Storage.DatabaseURL)
			assert.Equal(t, tt.wantURL, cfg.Storage.Redis.URL)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "Memory", cfg: Config{Storage: StorageConfig{Driver: DriverMemory}}},
		{name: "Redis", cfg: Config{Storage: StorageConfig{Driver: DriverRedis}}},
		{
			name: "PostgresWithURL",
			cfg:  Config{Storage: StorageConfig{Driver: DriverPostgres, DatabaseURL: "postgres://db"}},
		},
		{
			name:    "PostgresWithoutURL",
			cfg:     Config{Storage: StorageConfig{Driver: DriverPostgres}},
			wantErr: "database URL",
		},
		{
			name:    "UnknownDriver",
			cfg:     Config{Storage: StorageConfig{Driver: "sqlite"}},
			wantErr: `unknown storage driver "sqlite"`,
		},
		{
			name: "BadTimezone",
			cfg: Config{
				Shop:    ShopConfig{Timezone: "Mars/Olympus"},
				Storage: StorageConfig{Driver: DriverMemory},
			},
			wantErr: "Mars/Olympus",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestShopDisplayFormat(t *testing.T) {
	f, err := ShopConfig{Timezone: "Asia/Kolkata", DisplayLayout: "2006-01-02 15:04"}.DisplayFormat()
	require.NoError(t, err)
	require.NotNil(t, f.Location)
	assert.Equal(t, "Asia/Kolkata", f.Location.String())
	assert.Equal(t, "2006-01-02 15:04", f.Layout)

	f, err = ShopConfig{}.DisplayFormat()
	require.NoError(t, err)
	assert.Nil(t, f.Location)
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisConfig{Addr: "cache:6379", Password: "pw", DB: 3}.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	opts, err = RedisConfig{Addr: "ignored:1", URL: "redis://:secret@other:6380/5"}.Options()
	require.NoError(t, err)
	assert.Equal(t, "other:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 5, opts.DB)

	_, err = RedisConfig{URL: "http://nope"}.Options()
	assert.Error(t, err)
}

func TestOpenStorageMemory(t *testing.T) {
	ctx := context.Background()
	store, closeFn, err := OpenStorage(ctx, StorageConfig{Driver: DriverMemory})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Ping(ctx))
	entries, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, closeFn, err = OpenStorage(ctx, StorageConfig{Driver: "sqlite"})
	assert.Error(t, err)
	closeFn()
}

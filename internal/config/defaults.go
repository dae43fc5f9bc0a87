package config

const (
	defaultConfigPath             = "~/.config/wavepipe/config.toml"
	defaultWorkDir                = "."
	defaultWorkspaceDir           = ""
	defaultLogDir                 = "~/.local/share/wavepipe/logs"
	defaultDataDir                = "~/.local/share/wavepipe"
	defaultBind                   = "127.0.0.1:3000"
	defaultMaxConcurrentDownloads = 4
	defaultAdmissionWaitSeconds   = 10
	defaultRateLimitPerMinute     = 60
	defaultShutdownTimeoutSeconds = 10
	defaultUserAgent              = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultProbeTimeoutSeconds    = 60
	defaultFetchTimeoutSeconds    = 1800
	defaultInfoTimeoutSeconds     = 120
	defaultMaxMetadataBytes       = 10 * 1024 * 1024
	defaultFFmpegBinary           = "ffmpeg"
	defaultStderrSummaryLines     = 5
	defaultAuthor                 = "YouTube"
	defaultCacheBackend           = CacheBackendMemory
	defaultCacheTTLSeconds        = 600
	defaultCacheMaxEntries        = 512
	defaultRedisPrefix            = "wavepipe:info:"
	defaultHistoryRetentionDays   = 30
	defaultSweepIntervalSeconds   = 900
	defaultWorkspaceMaxAgeSeconds = 7200
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Cache backends accepted by cache.backend.
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

var (
	defaultAllowedHosts   = []string{"youtube.com", "youtu.be"}
	defaultAllowedOrigins = []string{"*"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:      defaultWorkDir,
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			DataDir:      defaultDataDir,
		},
		Server: Server{
			Bind:                   defaultBind,
			AllowedHosts:           append([]string(nil), defaultAllowedHosts...),
			AllowedOrigins:         append([]string(nil), defaultAllowedOrigins...),
			MaxConcurrentDownloads: defaultMaxConcurrentDownloads,
			AdmissionWaitSeconds:   defaultAdmissionWaitSeconds,
			RateLimitPerMinute:     defaultRateLimitPerMinute,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		Engine: Engine{
			UserAgent:          defaultUserAgent,
			ProbeTimeoutSecs:   defaultProbeTimeoutSeconds,
			FetchTimeoutSecs:   defaultFetchTimeoutSeconds,
			InfoTimeoutSecs:    defaultInfoTimeoutSeconds,
			MaxMetadataBytes:   defaultMaxMetadataBytes,
			FFmpegBinary:       defaultFFmpegBinary,
			StderrSummaryLines: defaultStderrSummaryLines,
		},
		Metadata: Metadata{
			DefaultAuthor: defaultAuthor,
		},
		Cache: Cache{
			Backend:     defaultCacheBackend,
			TTLSeconds:  defaultCacheTTLSeconds,
			MaxEntries:  defaultCacheMaxEntries,
			RedisPrefix: defaultRedisPrefix,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Workspace: Workspace{
			SweepIntervalSeconds: defaultSweepIntervalSeconds,
			MaxAgeSeconds:        defaultWorkspaceMaxAgeSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

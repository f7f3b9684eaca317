package config

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	BasePath        string `yaml:"base_path"`
	RequestTimeout  string `yaml:"request_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatabaseConfig is the transactional store beneath tenants/storages/sessions/command_log.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// RedisConfig backs the tenant/storage registry cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TokenConfig governs the Token Service (C5).
type TokenConfig struct {
	SecretKey string `yaml:"secret_key"`
	TTL       string `yaml:"ttl"`
}

// PoolEditorConfig is the process-wide default WOPI client used by tenants in "pool" mode.
type PoolEditorConfig struct {
	BaseURL        string `yaml:"base_url"`
	DiscoveryToken string `yaml:"discovery_token"`
}

// CallbackConfig governs the Callback Dispatcher (C8).
type CallbackConfig struct {
	RequestTimeout string `yaml:"request_timeout"`
	QueueSize      int    `yaml:"queue_size"`
	Workers        int    `yaml:"workers"`
	BaseBackoff    string `yaml:"base_backoff"`
	MaxBackoff     string `yaml:"max_backoff"`
	MaxAttempts    int    `yaml:"max_attempts"`
}

// AdminConfig governs the instance-level administrative surface (§4.9.1).
type AdminConfig struct {
	Token string `yaml:"token"`
}

// RegistryCacheConfig governs the 60s TTL cache over tenants/storages (§4.2, §5).
type RegistryCacheConfig struct {
	TTL string `yaml:"ttl"`
}

// ProxyConfig is the base URL this instance is reachable at, used to compose WOPISrc.
type ProxyConfig struct {
	BaseURL string `yaml:"base_url"`
}

type AppConfig struct {
	Server   ServerConfig        `yaml:"server"`
	Database DatabaseConfig      `yaml:"database"`
	Redis    RedisConfig         `yaml:"redis"`
	Token    TokenConfig         `yaml:"token"`
	Pool     PoolEditorConfig    `yaml:"pool_editor"`
	Callback CallbackConfig      `yaml:"callback"`
	Admin    AdminConfig         `yaml:"admin"`
	Registry RegistryCacheConfig `yaml:"registry_cache"`
	Proxy    ProxyConfig         `yaml:"proxy"`
}

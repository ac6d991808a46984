// Package config carga la configuración del servicio: config.yaml como base
// y variables de entorno que la pisan (12-factor).
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderOptions son las credenciales y rutas de un provider social ya
// validadas. Sólo existen entradas para providers habilitados y completos.
type ProviderOptions struct {
	Name         string
	ClientID     string
	ClientSecret string
	// CallbackPath se resuelve contra Social.RedirectBaseURL.
	CallbackPath string
	Scopes       []string
}

// RedirectURL devuelve la URL absoluta de callback del provider.
func (p ProviderOptions) RedirectURL(base string) string {
	return strings.TrimRight(base, "/") + p.CallbackPath
}

type Config struct {
	App struct {
		Env string `yaml:"env"` // dev | prod
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"storage"`

	Cache struct {
		Kind   string `yaml:"kind"` // memory | redis
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	UsersAPI struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"users_api"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		Audience   string `yaml:"audience"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
		// Ed25519SeedB64: semilla de 32 bytes en base64. Vacía => clave
		// efímera por proceso (sólo dev: invalida tokens en cada restart).
		Ed25519SeedB64 string `yaml:"ed25519_seed_b64"`
	} `yaml:"jwt"`

	Social struct {
		// RedirectBaseURL es la base pública contra la que se resuelven los
		// callback paths (p.ej. https://auth.example.com).
		RedirectBaseURL string   `yaml:"redirect_base_url"`
		StateTTL        string   `yaml:"state_ttl"`
		LoginCodeTTL    string   `yaml:"login_code_ttl"`
		Enabled         []string `yaml:"enabled"`

		Google ProviderYAML `yaml:"google"`
		GitHub ProviderYAML `yaml:"github"`
		Kakao  ProviderYAML `yaml:"kakao"`
	} `yaml:"social"`
}

// ProviderYAML es la forma cruda de un provider en config.yaml / env.
type ProviderYAML struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	CallbackPath string   `yaml:"callback_path"`
	Scopes       []string `yaml:"scopes"`
}

var defaultScopes = map[string][]string{
	"google": {"openid", "email", "profile"},
	"github": {"read:user", "user:email"},
	"kakao":  {"account_email", "profile_nickname", "profile_image"},
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.UsersAPI.Timeout == "" {
		c.UsersAPI.Timeout = "10s"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h" // 30d
	}
	if c.Social.StateTTL == "" {
		c.Social.StateTTL = "5m"
	}
	if c.Social.LoginCodeTTL == "" {
		c.Social.LoginCodeTTL = "60s"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_CONNS"); ok {
		c.Storage.MaxConns = int32(v)
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// USERS API
	if v, ok := getEnvStr("USERS_API_BASE_URL"); ok {
		c.UsersAPI.BaseURL = v
	}
	if v, ok := getEnvStr("USERS_API_TIMEOUT"); ok {
		c.UsersAPI.Timeout = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_AUDIENCE"); ok {
		c.JWT.Audience = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}
	if v, ok := getEnvStr("JWT_ED25519_SEED_B64"); ok {
		c.JWT.Ed25519SeedB64 = v
	}

	// SOCIAL
	if v, ok := getEnvStr("SOCIAL_REDIRECT_BASE_URL"); ok {
		c.Social.RedirectBaseURL = v
	}
	if v, ok := getEnvStr("SOCIAL_STATE_TTL"); ok {
		c.Social.StateTTL = v
	}
	if v, ok := getEnvStr("SOCIAL_LOGIN_CODE_TTL"); ok {
		c.Social.LoginCodeTTL = v
	}
	if v, ok := getEnvCSV("PROVIDERS_ENABLED"); ok {
		c.Social.Enabled = v
	}

	overrideProvider("GOOGLE", &c.Social.Google)
	overrideProvider("GITHUB", &c.Social.GitHub)
	overrideProvider("KAKAO", &c.Social.Kakao)
}

func overrideProvider(prefix string, p *ProviderYAML) {
	if v, ok := getEnvStr(prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr(prefix + "_CALLBACK_PATH"); ok {
		p.CallbackPath = v
	}
	if v, ok := getEnvCSV(prefix + "_SCOPES"); ok {
		p.Scopes = v
	}
}

// EnabledProviders normaliza social.enabled: minúsculas, sin duplicados,
// orden estable.
func (c *Config) EnabledProviders() []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(c.Social.Enabled))
	for _, name := range c.Social.Enabled {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ProviderOptionsFor arma el mapa de providers habilitados y completos.
// Un provider habilitado con credenciales incompletas es error de arranque:
// nunca se registra un provider con credenciales placeholder.
func (c *Config) ProviderOptionsFor() (map[string]ProviderOptions, error) {
	raw := map[string]*ProviderYAML{
		"google": &c.Social.Google,
		"github": &c.Social.GitHub,
		"kakao":  &c.Social.Kakao,
	}

	var problems []string
	out := make(map[string]ProviderOptions)

	for _, name := range c.EnabledProviders() {
		py, known := raw[name]
		if !known {
			problems = append(problems, fmt.Sprintf("%s: provider desconocido", name))
			continue
		}

		var missing []string
		if strings.TrimSpace(py.ClientID) == "" {
			missing = append(missing, strings.ToUpper(name)+"_CLIENT_ID")
		}
		if strings.TrimSpace(py.ClientSecret) == "" {
			missing = append(missing, strings.ToUpper(name)+"_CLIENT_SECRET")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("%s: faltan %s", name, strings.Join(missing, ", ")))
			continue
		}

		opts := ProviderOptions{
			Name:         name,
			ClientID:     py.ClientID,
			ClientSecret: py.ClientSecret,
			CallbackPath: py.CallbackPath,
			Scopes:       py.Scopes,
		}
		if opts.CallbackPath == "" {
			opts.CallbackPath = "/v1/auth/social/" + name + "/callback"
		}
		if len(opts.Scopes) == 0 {
			opts.Scopes = defaultScopes[name]
		}
		out[name] = opts
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("social providers mal configurados: %s", strings.Join(problems, "; "))
	}
	return out, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.App.Env != "dev" && c.App.Env != "prod" {
		errs = append(errs, fmt.Sprintf("app.env inválido: %q (dev|prod)", c.App.Env))
	}
	if c.Cache.Kind != "memory" && c.Cache.Kind != "redis" {
		errs = append(errs, fmt.Sprintf("cache.kind inválido: %q (memory|redis)", c.Cache.Kind))
	}
	if c.Cache.Kind == "redis" && c.Cache.Redis.Addr == "" {
		errs = append(errs, "cache.redis.addr requerido con cache.kind=redis")
	}
	if c.Storage.DSN == "" {
		errs = append(errs, "storage.dsn requerido")
	}
	if c.UsersAPI.BaseURL == "" {
		errs = append(errs, "users_api.base_url requerido")
	}
	if c.JWT.Issuer == "" {
		errs = append(errs, "jwt.issuer requerido")
	}
	if len(c.EnabledProviders()) > 0 && c.Social.RedirectBaseURL == "" {
		errs = append(errs, "social.redirect_base_url requerido con providers habilitados")
	}

	for _, f := range []struct{ name, val string }{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"cache.memory.default_ttl", c.Cache.Memory.DefaultTTL},
		{"users_api.timeout", c.UsersAPI.Timeout},
		{"jwt.access_ttl", c.JWT.AccessTTL},
		{"jwt.refresh_ttl", c.JWT.RefreshTTL},
		{"social.state_ttl", c.Social.StateTTL},
		{"social.login_code_ttl", c.Social.LoginCodeTTL},
	} {
		if _, err := time.ParseDuration(f.val); err != nil {
			errs = append(errs, fmt.Sprintf("%s inválido: %q", f.name, f.val))
		}
	}

	// Credenciales se validan junto con la lista de habilitados para
	// reportar todos los faltantes en un solo error.
	if _, err := c.ProviderOptionsFor(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config inválida: %s", strings.Join(errs, "; "))
	}
	return nil
}

// MustDur parsea una duración ya validada por Validate.
func MustDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(fmt.Sprintf("duración inválida %q: %v", s, err))
	}
	return d
}

// IsProd reporta si el entorno es productivo.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Config es la configuración completa de polyarb.
// Se carga una vez por proceso; los umbrales de riesgo viven aparte (ver RiskFile)
// porque se releen en cada validación.
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	LLM        LLMConfig        `yaml:"llm"`
	API        APIConfig        `yaml:"api"`
	Wallet     WalletConfig     `yaml:"wallet"`
	Storage    StorageConfig    `yaml:"storage"`
	Risk       RiskConfig       `yaml:"risk"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// PipelineConfig controla el loop del pipeline.
type PipelineConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"` // pausa entre runs, sin solapamiento
	EventLimit      int `yaml:"event_limit"`      // eventos pedidos a Gamma por volumen
	TopEvents       int `yaml:"top_events"`       // ventana top-N por asset para los pares
}

// LLMConfig configura el clasificador de dependencia.
type LLMConfig struct {
	APIKey            string  `yaml:"-"` // solo por env
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"` // 0 = default 0.2
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
}

// APIConfig contiene los base URLs de Polymarket.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	WSURL     string `yaml:"ws_url"`
}

// WalletConfig son las credenciales para el modo live. Nunca se leen del YAML.
type WalletConfig struct {
	PrivateKey    string `yaml:"-"`
	APIKey        string `yaml:"-"`
	APISecret     string `yaml:"-"`
	APIPassphrase string `yaml:"-"`
}

// HasPrivateKey indica si hay una clave para firmar órdenes.
func (w WalletConfig) HasPrivateKey() bool {
	return w.PrivateKey != ""
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// RiskConfig apunta al YAML de umbrales de riesgo.
type RiskConfig struct {
	Path string `yaml:"path"`
}

// MonitoringConfig contiene los umbrales de alertas.
type MonitoringConfig struct {
	Alerts domain.AlertThresholds `yaml:"alerts"`
}

// TelegramConfig habilita las notificaciones por Telegram si hay token y chat.
type TelegramConfig struct {
	BotToken   string `yaml:"-"`
	ChatID     string `yaml:"chat_id"`
	MaxRetries int    `yaml:"max_retries"`
}

// Enabled indica si hay credenciales suficientes para enviar mensajes.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Orden de precedencia: defaults < YAML < variables de entorno (.env incluido).
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// PipelineInterval devuelve la pausa entre runs como time.Duration.
func (c *Config) PipelineInterval() time.Duration {
	return time.Duration(c.Pipeline.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	strs := []struct {
		dst  *string
		keys []string
	}{
		{&cfg.Log.Level, []string{"LOG_LEVEL"}},
		{&cfg.Log.Format, []string{"LOG_FORMAT"}},
		{&cfg.LLM.APIKey, []string{"GOOGLE_GEMINI_API_KEY", "GEMINI_API_KEY"}},
		{&cfg.LLM.Model, []string{"LLM_MODEL"}},
		{&cfg.Wallet.PrivateKey, []string{"PRIVATE_KEY"}},
		{&cfg.Wallet.APIKey, []string{"POLYMARKET_API_KEY"}},
		{&cfg.Wallet.APISecret, []string{"POLYMARKET_API_SECRET"}},
		{&cfg.Wallet.APIPassphrase, []string{"POLYMARKET_PASSPHRASE"}},
		{&cfg.API.CLOBBase, []string{"POLYMARKET_CLOB_API_URL"}},
		{&cfg.Telegram.BotToken, []string{"TELEGRAM_BOT_TOKEN"}},
		{&cfg.Telegram.ChatID, []string{"TELEGRAM_CHAT_ID"}},
		{&cfg.Storage.DSN, []string{"STORAGE_DSN"}},
		{&cfg.Server.Addr, []string{"SERVER_ADDR"}},
		{&cfg.Risk.Path, []string{"RISK_PARAMS_PATH"}},
	}
	for _, s := range strs {
		for _, k := range s.keys {
			if v := os.Getenv(k); v != "" {
				*s.dst = v
				break
			}
		}
	}

	if v := os.Getenv("PIPELINE_INTERVAL_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PIPELINE_INTERVAL_SEC: %w", err)
		}
		cfg.Pipeline.IntervalSeconds = n
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Pipeline.IntervalSeconds <= 0 {
		cfg.Pipeline.IntervalSeconds = 10
	}
	if cfg.Pipeline.EventLimit <= 0 {
		cfg.Pipeline.EventLimit = 150
	}
	if cfg.Pipeline.TopEvents <= 1 {
		cfg.Pipeline.TopEvents = 5
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.0-flash"
	}
	if cfg.LLM.Temperature <= 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = 512
	}
	if cfg.LLM.RequestsPerMinute <= 0 {
		cfg.LLM.RequestsPerMinute = 15
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.WSURL == "" {
		cfg.API.WSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyarb.db"
	}
	if cfg.Risk.Path == "" {
		cfg.Risk.Path = "config/risk_params.yaml"
	}
	if cfg.Monitoring.Alerts.DrawdownPctGt <= 0 {
		cfg.Monitoring.Alerts.DrawdownPctGt = domain.DefaultDrawdownPct
	}
	if cfg.Telegram.MaxRetries <= 0 {
		cfg.Telegram.MaxRetries = 3
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

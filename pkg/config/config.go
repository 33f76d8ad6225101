package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	LogStore     LogStoreConfig     `yaml:"log_store"`
	Entities     EntitiesConfig     `yaml:"entities"`
	Models       RoleModelsConfig   `yaml:"models"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LogStoreConfig задает, какая колонка CSV содержит JSON-полезную
// нагрузку, и размер LRU-кэша мелких результатов поиска.
type LogStoreConfig struct {
	PayloadColumn string `yaml:"payload_column"`
	CacheSize     int    `yaml:"cache_size"`
}

// EntitiesConfig указывает путь к файлу aliases/patterns/relationships,
// загружаемому Entity Catalog'ом при старте процесса.
type EntitiesConfig struct {
	ConfigPath string `yaml:"config_path"`
}

// RoleModelsConfig — настройки двух ролей LLM: planner принимает
// решения о следующем действии, analyzer выполняет более глубокое
// чтение рабочего набора по запросу analyze_logs.
type RoleModelsConfig struct {
	Planner  ModelRoleConfig `yaml:"planner"`
	Analyzer ModelRoleConfig `yaml:"analyzer"`
}

// ModelRoleConfig — параметры одной модельной роли.
type ModelRoleConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"` // поддерживает ${VAR}
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// OrchestratorConfig — параметры цикла ReAct: лимит итераций, порог
// запуска Smart Summarizer и настройки cycle guard.
type OrchestratorConfig struct {
	MaxIterations        int `yaml:"max_iterations"`
	SummaryThresholdRows int `yaml:"summary_threshold_rows"`
	CycleGuardWindow     int `yaml:"cycle_guard_window"`
	CycleGuardRepeats    int `yaml:"cycle_guard_repeats"`
}

// LoggingConfig — параметры обслуживания pkg/obslog.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

const (
	defaultPayloadColumn        = "message"
	defaultCacheSize            = 256
	defaultMaxIterations        = 10
	defaultSummaryThresholdRows = 50
	defaultCycleGuardWindow     = 5
	defaultCycleGuardRepeats    = 3
	defaultLoggingLevel         = "info"
	defaultLoggingEncoding      = "json"
	defaultTemperature          = 0.1
	defaultMaxTokens            = 2048
)

// GetDefaults возвращает конфигурацию с подставленными дефолтами для
// всех незаполненных полей, не затрагивая явно заданные значения.
func (c AppConfig) GetDefaults() AppConfig {
	result := c

	if result.LogStore.PayloadColumn == "" {
		result.LogStore.PayloadColumn = defaultPayloadColumn
	}
	if result.LogStore.CacheSize == 0 {
		result.LogStore.CacheSize = defaultCacheSize
	}
	if result.Orchestrator.MaxIterations == 0 {
		result.Orchestrator.MaxIterations = defaultMaxIterations
	}
	if result.Orchestrator.SummaryThresholdRows == 0 {
		result.Orchestrator.SummaryThresholdRows = defaultSummaryThresholdRows
	}
	if result.Orchestrator.CycleGuardWindow == 0 {
		result.Orchestrator.CycleGuardWindow = defaultCycleGuardWindow
	}
	if result.Orchestrator.CycleGuardRepeats == 0 {
		result.Orchestrator.CycleGuardRepeats = defaultCycleGuardRepeats
	}
	if result.Logging.Level == "" {
		result.Logging.Level = defaultLoggingLevel
	}
	if result.Logging.Encoding == "" {
		result.Logging.Encoding = defaultLoggingEncoding
	}
	result.Models.Planner = result.Models.Planner.withDefaults()

	// Per the recorded Open Question decision: the analyzer role
	// defaults to the planner's model entry when left unconfigured.
	if result.Models.Analyzer.Model == "" && result.Models.Analyzer.Provider == "" {
		result.Models.Analyzer = result.Models.Planner
	} else {
		result.Models.Analyzer = result.Models.Analyzer.withDefaults()
	}

	return result
}

func (m ModelRoleConfig) withDefaults() ModelRoleConfig {
	result := m
	if result.Temperature == 0 {
		result.Temperature = defaultTemperature
	}
	if result.MaxTokens == 0 {
		result.MaxTokens = defaultMaxTokens
	}
	return result
}

// Load читает YAML файл, подставляет переменные окружения и возвращает
// готовую структуру с дефолтами.
func Load(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// os.ExpandEnv заменяет ${VAR} или $VAR значением из окружения —
	// используется для api_key и подобных секретов.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg = cfg.GetDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if c.Models.Planner.Model == "" {
		return fmt.Errorf("models.planner.model is required")
	}
	if c.Entities.ConfigPath == "" {
		return fmt.Errorf("entities.config_path is required")
	}
	return nil
}

// ChainTimeout возвращает таймаут одного вызова оркестратора. Конфиг
// не предоставляет его явно per spec §6 — используется фиксированный
// разумный дефолт, тот же, что teacher применял для цепочек без
// явного timeout в YAML.
func (c *AppConfig) ChainTimeout() time.Duration {
	return 5 * time.Minute
}

package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	LLM           LLMConfig           `yaml:"llm"`
	Collaboration CollaborationConfig `yaml:"collaboration"`
	Video         VideoConfig         `yaml:"video"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type LLMConfig struct {
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	Provider  string `yaml:"provider"` // http, eino
}

// CollaborationConfig 协作会话参数
type CollaborationConfig struct {
	MaxRounds   int           `yaml:"max_rounds"`   // 对话最大轮数
	MaxWorkers  int           `yaml:"max_workers"`  // 同时运行的协作会话数
	TurnDelay   time.Duration `yaml:"turn_delay"`   // 相邻发言之间的停顿（仅影响前端节奏）
	RoundDelay  time.Duration `yaml:"round_delay"`  // 相邻轮次之间的停顿
	CallTimeout time.Duration `yaml:"call_timeout"` // 单次 LLM 调用超时
}

type VideoConfig struct {
	OutputDir string `yaml:"output_dir"`
	Platform  string `yaml:"platform"` // youtube, tiktok 等
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func loadConfig() *Config {
	config := &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		LLM: LLMConfig{
			APIURL:    "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			MaxTokens: 1500,
			Provider:  "http",
		},
		Collaboration: CollaborationConfig{
			MaxRounds:   3,
			MaxWorkers:  2,
			TurnDelay:   400 * time.Millisecond,
			RoundDelay:  300 * time.Millisecond,
			CallTimeout: 2 * time.Minute,
		},
		Video: VideoConfig{
			OutputDir: "./data/videos",
			Platform:  "youtube",
		},
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	// 环境变量优先级高于配置文件
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.APIURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if maxRounds := os.Getenv("COLLAB_MAX_ROUNDS"); maxRounds != "" {
		if n, err := strconv.Atoi(maxRounds); err == nil && n > 0 {
			config.Collaboration.MaxRounds = n
		}
	}
	if outputDir := os.Getenv("VIDEO_OUTPUT_DIR"); outputDir != "" {
		config.Video.OutputDir = outputDir
	}

	return config
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func UpdateConfig(newCfg *Config) {
	cfg = newCfg
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置（apiserver / worker / parcelctl 共用）
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lmstfy   LmstfyConfig   `mapstructure:"lmstfy"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Workers  []WorkerConfig `mapstructure:"workers"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxWait         time.Duration `mapstructure:"max_wait"`     // 异步任务 Smart Wait 上限
	LabelsAdmin     bool          `mapstructure:"labels_admin"` // 是否开放标签刷新接口
}

// DatabaseConfig 数据库配置（driver: mysql / sqlite）
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	ResultTTL time.Duration `mapstructure:"result_ttl"` // 可行性结果缓存时间，0 表示不缓存
}

// LmstfyConfig Lmstfy 配置
type LmstfyConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Namespace     string `mapstructure:"namespace"`
	Token         string `mapstructure:"token"`
	Queue         string `mapstructure:"queue"`          // 可行性任务队列
	CallbackQueue string `mapstructure:"callback_queue"` // 回调队列
}

// EngineConfig 规则引擎配置
type EngineConfig struct {
	LayerTimeout     time.Duration `mapstructure:"layer_timeout"`      // 单图层查询超时
	MaxMessages      int           `mapstructure:"max_messages"`       // 约束提示条数上限
	DefaultLang      string        `mapstructure:"default_lang"`       // 默认语言
	LabelRefreshCron string        `mapstructure:"label_refresh_cron"` // 标签字典定时刷新，空表示不刷新
}

// WorkerConfig Worker 配置
type WorkerConfig struct {
	Name       string           `mapstructure:"name"`
	QueueName  string           `mapstructure:"queue_name"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Rate         time.Duration `mapstructure:"rate"`          // 拉取速率
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// Load 加载配置文件，环境变量 URBAPLAN_* 可覆盖同名配置项
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("URBAPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// Default 返回仅包含默认值的配置（CLI 与测试使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "urbaplan")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_wait", 10*time.Second)
	v.SetDefault("server.labels_admin", true)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("redis.result_ttl", 0)
	v.SetDefault("lmstfy.port", 7777)
	v.SetDefault("lmstfy.queue", "parcel_feasibility")
	v.SetDefault("lmstfy.callback_queue", "parcel_feasibility_callback")
	v.SetDefault("engine.layer_timeout", 2*time.Second)
	v.SetDefault("engine.max_messages", 5)
	v.SetDefault("engine.default_lang", "fr")
}

// Validate 验证配置（worker 需要 workers 段，apiserver 不需要）
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be mysql or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Engine.LayerTimeout <= 0 {
		return fmt.Errorf("engine.layer_timeout must be positive")
	}
	if c.Engine.MaxMessages <= 0 {
		return fmt.Errorf("engine.max_messages must be positive")
	}
	return nil
}

// ValidateServer 验证 apiserver / callback consumer 所需配置
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if c.Lmstfy.Queue == "" || c.Lmstfy.CallbackQueue == "" {
		return fmt.Errorf("lmstfy.queue and lmstfy.callback_queue are required")
	}
	return nil
}

// ValidateWorker 验证 worker 进程所需配置
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if len(c.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}
	for _, w := range c.Workers {
		if w.QueueName == "" {
			return fmt.Errorf("worker %s: queue_name is required", w.Name)
		}
		if w.Processor.Threads <= 0 || w.Subscriber.Threads <= 0 {
			return fmt.Errorf("worker %s: threads must be positive", w.Name)
		}
	}
	return nil
}

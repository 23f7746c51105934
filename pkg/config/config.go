package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Workflow WorkflowConfig `yaml:"workflow"`
}

type ServerConfig struct {
	APIPort int    `yaml:"api_port"`
	Mode    string `yaml:"mode"` // gin模式: debug / release / test
}

// SetDefaults 设置服务配置的默认值
func (c *ServerConfig) SetDefaults() {
	if c.APIPort == 0 {
		c.APIPort = 8080
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // 数据库驱动: mysql, postgres (默认: mysql)
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
}

// SetDefaults 设置数据库配置的默认值
func (c *DatabaseConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "mysql"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		if c.Driver == "postgres" {
			c.Port = 5432
		} else {
			c.Port = 3306
		}
	}
	if c.DBName == "" {
		c.DBName = "fleetops"
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 100
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 3600
	}
}

type RedisConfig struct {
	// Enabled 是否启用Redis
	// - true: 启用Redis，支持分布式特性（多实例部署时的过期扫描互斥锁等）
	// - false: 禁用Redis，使用单机模式
	Enabled bool `yaml:"enabled"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// ConnectTimeout 连接超时时间（秒，默认5秒）
	ConnectTimeout int `yaml:"connect_timeout"`
	// ReadTimeout 读取超时时间（秒，默认3秒）
	ReadTimeout int `yaml:"read_timeout"`
	// WriteTimeout 写入超时时间（秒，默认3秒）
	WriteTimeout int `yaml:"write_timeout"`
	// PoolSize 连接池大小（默认10）
	PoolSize int `yaml:"pool_size"`
	// MinIdleConns 最小空闲连接数（默认5）
	MinIdleConns int `yaml:"min_idle_conns"`
}

// Validate 验证Redis配置
func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil // Redis未启用，无需验证
	}

	if c.Host == "" {
		return fmt.Errorf("redis host is required when enabled=true")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid redis port: %d", c.Port)
	}

	return nil
}

// SetDefaults 设置默认值
func (c *RedisConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 6379
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 5
	}
}

type SecurityConfig struct {
	// JWTSecret JWT签名密钥（建议64字节或更长，更安全）
	JWTSecret string `yaml:"jwt_secret"`

	// SessionTimeout 会话超时时间（秒）
	SessionTimeout int `yaml:"session_timeout"`
}

// SetDefaults 设置安全配置的默认值
func (c *SecurityConfig) SetDefaults() {
	if c.JWTSecret == "" {
		// 默认JWT密钥，仅用于开发环境；生产环境必须修改为强随机字符串
		c.JWTSecret = "T4qkzXkWk0fleetopsDevOnlySecretxq7Jm3P9bVnR2sLd8HcYw5uEg1AiZo6N"
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 86400
	}
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug / info / warn / error
	Output string `yaml:"output"` // console / file / both
	File   string `yaml:"file"`   // 日志文件路径
}

// SetDefaults 设置日志配置的默认值
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Output == "" {
		c.Output = "console"
	}
	if c.File == "" {
		c.File = "logs/fleetops.log"
	}
}

// ApprovalLevelRule 审批级数规则：申请金额不超过 MaxValue 时需要 Levels 级审批
// MaxValue 为空字符串表示不设上限（兜底规则）
type ApprovalLevelRule struct {
	MaxValue string `yaml:"max_value"`
	Levels   int    `yaml:"levels"`
}

type WorkflowConfig struct {
	// ApprovalLevels 金额 -> 审批级数的阶梯规则，按金额升序排列
	// 审批级数属于部署策略，通过配置注入而不是写死在引擎里
	ApprovalLevels []ApprovalLevelRule `yaml:"approval_levels"`

	// ReservationTTLMinutes 库存预留的默认有效期（分钟），显式配置0表示不自动过期
	// 用指针区分"未配置"（取默认120）和"配置为0"
	ReservationTTLMinutes *int `yaml:"reservation_ttl_minutes"`

	// SweepIntervalMinutes 过期预留扫描间隔（分钟）
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`

	// AutoApproveThreshold 全局自动审批金额阈值（未配置技术员限额时的兜底值）
	AutoApproveThreshold string `yaml:"auto_approve_threshold"`
}

// SetDefaults 设置工作流配置的默认值
func (c *WorkflowConfig) SetDefaults() {
	if len(c.ApprovalLevels) == 0 {
		c.ApprovalLevels = []ApprovalLevelRule{
			{MaxValue: "5000", Levels: 1},
			{MaxValue: "20000", Levels: 2},
			{MaxValue: "", Levels: 3},
		}
	}
	if c.ReservationTTLMinutes == nil {
		ttl := 120
		c.ReservationTTLMinutes = &ttl
	}
	if c.SweepIntervalMinutes == 0 {
		c.SweepIntervalMinutes = 5
	}
	if c.AutoApproveThreshold == "" {
		c.AutoApproveThreshold = "1000"
	}
}

// Validate 验证工作流配置
func (c *WorkflowConfig) Validate() error {
	for i, rule := range c.ApprovalLevels {
		if rule.Levels <= 0 {
			return fmt.Errorf("workflow.approval_levels[%d]: levels must be positive, got %d", i, rule.Levels)
		}
		if rule.MaxValue != "" {
			if _, err := decimal.NewFromString(rule.MaxValue); err != nil {
				return fmt.Errorf("workflow.approval_levels[%d]: invalid max_value %q: %w", i, rule.MaxValue, err)
			}
		}
	}
	if c.ReservationTTLMinutes != nil && *c.ReservationTTLMinutes < 0 {
		return fmt.Errorf("workflow.reservation_ttl_minutes: must not be negative, got %d", *c.ReservationTTLMinutes)
	}
	if _, err := decimal.NewFromString(c.AutoApproveThreshold); err != nil {
		return fmt.Errorf("workflow.auto_approve_threshold: invalid value %q: %w", c.AutoApproveThreshold, err)
	}
	return nil
}

// Load 从文件加载配置，并应用默认值和环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// 环境变量覆盖（容器部署时常用）
	applyEnvOverrides(&cfg)

	cfg.Server.SetDefaults()
	cfg.Database.SetDefaults()
	cfg.Redis.SetDefaults()
	cfg.Security.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Workflow.SetDefaults()

	if err := cfg.Redis.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Workflow.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides 应用环境变量覆盖
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLEETOPS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FLEETOPS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FLEETOPS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FLEETOPS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FLEETOPS_DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("FLEETOPS_REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("FLEETOPS_JWT_SECRET"); v != "" {
		cfg.Security.JWTSecret = v
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "0123456789abcdef-secret"
db:
  driver: sqlite
  sqlite_path: ":memory:"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("期望默认端口 8080，实际=%d", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("期望 driver=sqlite，实际=%s", cfg.Database.Driver)
	}
	if cfg.Timeline.MaxWriteAttempts != 5 {
		t.Errorf("期望 max_write_attempts=5，实际=%d", cfg.Timeline.MaxWriteAttempts)
	}
	if cfg.Timeline.RetryBackoff != 10*time.Millisecond {
		t.Errorf("期望 retry_backoff=10ms，实际=%s", cfg.Timeline.RetryBackoff)
	}
	if cfg.Timeline.StrictStatusRange {
		t.Error("strict_status_range 默认应为 false")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "0123456789abcdef-secret"
server:
  port: 9000
`)
	t.Setenv("TUTOR_SERVER_PORT", "9100")
	t.Setenv("TUTOR_TIMELINE_STRICT_STATUS_RANGE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("环境变量应覆盖配置文件，期望 9100，实际=%d", cfg.Server.Port)
	}
	if !cfg.Timeline.StrictStatusRange {
		t.Error("期望 strict_status_range=true")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")

	if _, err := Load(path); err == nil {
		t.Error("缺少 jwt_secret 时应返回错误")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverPostgres},
			Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
			Timeline: TimelineConfig{MaxWriteAttempts: 3, MaxRangeDays: 10},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}

	cases := map[string]func(c *Config){
		"短密钥":    func(c *Config) { c.Auth.JWTSecret = "short" },
		"端口越界":   func(c *Config) { c.Server.Port = 70000 },
		"未知驱动":   func(c *Config) { c.Database.Driver = "mysql" },
		"重试次数为零": func(c *Config) { c.Timeline.MaxWriteAttempts = 0 },
		"范围上限为零": func(c *Config) { c.Timeline.MaxRangeDays = 0 },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: 期望校验失败", name)
		}
	}
}

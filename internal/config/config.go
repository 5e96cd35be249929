// 包 config 负责加载与校验应用配置（settings.yaml），
// 支持以 TRACKER_ 前缀的环境变量覆盖，对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 为环境变量前缀，如 TRACKER_QUERY、TRACKER_RESOLVER_MAX_HOPS。
const EnvPrefix = "TRACKER"

// Config 为一次运行的全部配置。
type Config struct {
	Query       string   `yaml:"QUERY" envconfig:"QUERY"`
	MaxPosts    int      `yaml:"MAX_POSTS" envconfig:"MAX_POSTS" validate:"gte=0"`
	DryRun      bool     `yaml:"DRY_RUN" envconfig:"DRY_RUN"`
	Files       Files    `yaml:"FILES" envconfig:"FILES"`
	Source      Source   `yaml:"SOURCE" envconfig:"SOURCE"`
	Resolver    Resolver `yaml:"RESOLVER" envconfig:"RESOLVER"`
	Verify      Verify   `yaml:"VERIFY" envconfig:"VERIFY"`
	Proxy       Proxy    `yaml:"PROXY" envconfig:"PROXY"`
	MetricsFile string   `yaml:"METRICS_FILE" envconfig:"METRICS_FILE"`
	LogLevel    string   `yaml:"LOG_LEVEL" envconfig:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn warning error none silent off"`
	LogFormat   string   `yaml:"LOG_FORMAT" envconfig:"LOG_FORMAT" validate:"oneof=pretty text json"`
	LogLocale   string   `yaml:"LOG_LOCALE" envconfig:"LOG_LOCALE"` // zh-CN|en
	LogColor    string   `yaml:"LOG_COLOR" envconfig:"LOG_COLOR" validate:"oneof=auto always never"`

	// Workdir 为相对文件名的基准目录，由命令行决定
	Workdir string `yaml:"-" ignored:"true"`
}

// Files 为检查点、原始批次、排除列表与台账的文件名。
type Files struct {
	Checkpoint      string `yaml:"checkpoint" envconfig:"CHECKPOINT"`
	RawBatch        string `yaml:"raw_batch" envconfig:"RAW_BATCH"`
	ExcludedHandles string `yaml:"excluded_handles" envconfig:"EXCLUDED_HANDLES"`
	ExcludedHosts   string `yaml:"excluded_hosts" envconfig:"EXCLUDED_HOSTS"`
	ExcludedTerms   string `yaml:"excluded_terms" envconfig:"EXCLUDED_TERMS"`
	Skipped         string `yaml:"skipped" envconfig:"SKIPPED"`
	Accepted        string `yaml:"accepted" envconfig:"ACCEPTED"`
	Failed          string `yaml:"failed" envconfig:"FAILED"`
}

// Source 为在线拉取配置：URL 为搜索订阅模板，{query} 会被替换为转义后的查询。
// 翻页时从响应头 cursor_header 取游标，以 cursor_param 参数请求下一页。
type Source struct {
	URL          string        `yaml:"url" envconfig:"URL" validate:"omitempty,url"`
	Preset       string        `yaml:"preset" envconfig:"PRESET"`
	Retry        int           `yaml:"retry" envconfig:"RETRY" validate:"gte=0"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	CursorHeader string        `yaml:"cursor_header" envconfig:"CURSOR_HEADER"`
	CursorParam  string        `yaml:"cursor_param" envconfig:"CURSOR_PARAM"`
	MaxPages     int           `yaml:"max_pages" envconfig:"MAX_PAGES" validate:"gte=1,lte=100"`
}

// Resolver 为链接解析配置。
type Resolver struct {
	MaxHops         int           `yaml:"max_hops" envconfig:"MAX_HOPS" validate:"gte=1,lte=50"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	Keywords        []string      `yaml:"keywords" envconfig:"KEYWORDS"`
	RequireKeywords bool          `yaml:"require_keywords" envconfig:"REQUIRE_KEYWORDS"`
}

// Verify 为 -verify 模式配置：重新检查接受台账中的链接。
type Verify struct {
	Input   string `yaml:"input" envconfig:"INPUT"`
	Output  string `yaml:"output" envconfig:"OUTPUT"`
	Errors  string `yaml:"errors" envconfig:"ERRORS"`
	Limit   int    `yaml:"limit" envconfig:"LIMIT" validate:"gte=0"`
	PostURL string `yaml:"post_url" envconfig:"POST_URL"`
}

type Proxy struct {
	HTTP  string `yaml:"http" envconfig:"HTTP"`
	HTTPS string `yaml:"https" envconfig:"HTTPS"`
}

// Load 读取 YAML（文件必须存在），叠加环境变量后校验并填充默认值。
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c := defaults()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return finish(&c)
}

// LoadOrDefault 与 Load 相同，但文件不存在时使用全部默认值。
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		c := defaults()
		return finish(&c)
	}
	return Load(path)
}

func finish(c *Config) (*Config, error) {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, fmt.Errorf("env overlay: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// defaults 返回解码前的初始值：仅用于"未设置"与"显式为 0"含义不同的字段。
func defaults() Config {
	return Config{Source: Source{Retry: 2}}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 负责默认值设置与合法性检查，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	if c.MaxPosts < 0 {
		return errors.New("MAX_POSTS must be >= 0")
	}
	if c.MaxPosts == 0 {
		c.MaxPosts = 60
	}
	setDefault(&c.Files.Checkpoint, "lastID.txt")
	setDefault(&c.Files.RawBatch, "rawposts.jsonl")
	setDefault(&c.Files.ExcludedHandles, "excluded-handles.txt")
	setDefault(&c.Files.ExcludedHosts, "excluded-hosts.txt")
	setDefault(&c.Files.ExcludedTerms, "excluded-terms.txt")
	setDefault(&c.Files.Skipped, "posts-skipped.txt")
	setDefault(&c.Files.Accepted, "posts-accepted.txt")
	setDefault(&c.Files.Failed, "urls-failed.txt")

	setDefault(&c.Source.Preset, "default")
	if c.Source.Retry < 0 {
		return errors.New("SOURCE.retry must be >= 0")
	}
	setDefault(&c.Source.CursorHeader, "Min-Id")
	setDefault(&c.Source.CursorParam, "cursor")
	if c.Source.MaxPages == 0 {
		c.Source.MaxPages = 10
	}
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = 25 * time.Second
	}
	if c.Resolver.MaxHops == 0 {
		c.Resolver.MaxHops = 10
	}
	if c.Resolver.Timeout <= 0 {
		c.Resolver.Timeout = 15 * time.Second
	}
	setDefault(&c.Verify.Input, c.Files.Accepted)
	setDefault(&c.Verify.Output, "urls-verified.txt")
	setDefault(&c.Verify.Errors, "urls-verify-errors.txt")
	setDefault(&c.Verify.PostURL, "https://twitter.com/i/status/{id}")

	setDefault(&c.LogFormat, "pretty")
	setDefault(&c.LogLocale, "zh-CN")
	setDefault(&c.LogColor, "auto")
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// File 将相对文件名解析到工作目录下。
func (c *Config) File(name string) string {
	if name == "" || filepath.IsAbs(name) || c.Workdir == "" {
		return name
	}
	return filepath.Join(c.Workdir, name)
}

func setDefault(s *string, v string) {
	if *s == "" {
		*s = v
	}
}

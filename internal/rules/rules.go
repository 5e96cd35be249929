// 包 rules 负责加载并提供订阅条目的解析规则（rules.yaml），
// 以预设名（如 default/nitter）组织选择器，用于从条目 HTML 中抽取提及与链接。
package rules

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules 表示全部规则集合：键为预设名，值为具体规则。
type Rules struct {
	Presets map[string]Preset `yaml:",inline"`
}

// Preset 为单个订阅源预设的解析规则集合。
type Preset struct {
	Post *PostRules `yaml:"post"`
}

// PostRules 描述条目正文的选择器与约定：
// - anchor：正文中的链接元素
// - href/label：取链接地址与显示文本（支持 "@href" / "." / "||" 回退）
// - mention_prefix：显示文本以此开头的链接视为提及
// - repost_prefix：标题以此开头的条目视为转发
type PostRules struct {
	Anchor        string `yaml:"anchor"`
	Href          string `yaml:"href"`
	Label         string `yaml:"label"`
	MentionPrefix string `yaml:"mention_prefix"`
	HashtagPrefix string `yaml:"hashtag_prefix"`
	RepostPrefix  string `yaml:"repost_prefix"`
}

// Default 返回内置规则（Nitter 风格的搜索订阅）。
func Default() PostRules {
	return PostRules{
		Anchor:        "a",
		Href:          "@href",
		Label:         ".",
		MentionPrefix: "@",
		HashtagPrefix: "#",
		RepostPrefix:  "RT by ",
	}
}

// WithDefaults 为未填写的字段补上内置默认值。
func (p *PostRules) WithDefaults() PostRules {
	d := Default()
	if p == nil {
		return d
	}
	out := *p
	if out.Anchor == "" {
		out.Anchor = d.Anchor
	}
	if out.Href == "" {
		out.Href = d.Href
	}
	if out.Label == "" {
		out.Label = d.Label
	}
	if out.MentionPrefix == "" {
		out.MentionPrefix = d.MentionPrefix
	}
	if out.HashtagPrefix == "" {
		out.HashtagPrefix = d.HashtagPrefix
	}
	if out.RepostPrefix == "" {
		out.RepostPrefix = d.RepostPrefix
	}
	return out
}

func Load(path string) (*Rules, error) {
	// 从文件加载 YAML 到 Rules.Presets
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var r Rules
	if err := yaml.Unmarshal(b, &r.Presets); err != nil {
		return nil, fmt.Errorf("unmarshal rules %s: %w", path, err)
	}
	return &r, nil
}

// GetPreset 按名称获取预设（不区分大小写），若为空或不存在则回退到 "default"。
func (r *Rules) GetPreset(name string) (Preset, bool) {
	if r == nil || len(r.Presets) == 0 {
		return Preset{}, false
	}
	if name == "" {
		name = "default"
	}
	if p, ok := r.Presets[name]; ok {
		return p, true
	}
	lower := strings.ToLower(name)
	for k, v := range r.Presets {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	if p, ok := r.Presets["default"]; ok {
		return p, true
	}
	return Preset{}, false
}

// PostRules 返回指定预设的条目规则；未找到时使用内置默认值。
func (r *Rules) PostRules(name string) PostRules {
	p, _ := r.GetPreset(name)
	return p.Post.WithDefaults()
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"venue-analyze-go/internal/model"
)

// DefaultWorkshopSuffix 默认workshop后缀
const DefaultWorkshopSuffix = " Workshop"

// DefaultMinLength 默认最小长度
const DefaultMinLength = 3

// EmbeddedMappingSource 内置映射文件的来源标识
const EmbeddedMappingSource = "embedded:venue_mapping.yaml"

//go:embed venue_mapping.yaml
var embeddedVenueMapping []byte

// VenueMapping venue映射文档
type VenueMapping struct {
	Version       int                 `yaml:"version"`
	Preprocessing PreprocessingConfig `yaml:"preprocessing"`
	MinLength     int                 `yaml:"min_length"`
	GenericTerms  []string            `yaml:"generic_terms"`
	Workshop      WorkshopConfig      `yaml:"workshop"`
	Fallback      FallbackConfig      `yaml:"fallback"`
	Categories    []VenueCategory     `yaml:"categories"`
}

// PreprocessingConfig 预处理配置，正则按顺序替换成空格
type PreprocessingConfig struct {
	StripPatterns []string `yaml:"strip_patterns"`
}

// WorkshopConfig workshop识别配置
type WorkshopConfig struct {
	Enabled  *bool    `yaml:"enabled"`
	Suffix   string   `yaml:"suffix"`
	Patterns []string `yaml:"patterns"`
}

// IsEnabled 未配置时默认开启
func (w WorkshopConfig) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

// FallbackConfig 未匹配时的清理配置
type FallbackConfig struct {
	Prefixes []string `yaml:"prefixes"`
	Suffixes []string `yaml:"suffixes"`
}

// VenueCategory 规则分类
type VenueCategory struct {
	Name   string     `yaml:"name"`
	Venues []VenueDef `yaml:"venues"`
}

// VenueDef 单个venue的规则定义
type VenueDef struct {
	Label    string          `yaml:"label"`
	Type     model.VenueType `yaml:"type"`
	Patterns []string        `yaml:"patterns"`
	Negative []string        `yaml:"negative,omitempty"`
}

// RuleCount 规则总数
func (m *VenueMapping) RuleCount() int {
	n := 0
	for _, c := range m.Categories {
		n += len(c.Venues)
	}
	return n
}

// LoadVenueMapping 加载映射文档，path为空时使用内置文件
// 返回值第二项是来源标识
func LoadVenueMapping(path string) (*VenueMapping, string, error) {
	source := EmbeddedMappingSource
	data := embeddedVenueMapping

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, path, fmt.Errorf("failed to read venue mapping: %w", err)
		}
		source = path
		data = raw
	}

	m, err := ParseVenueMapping(data)
	if err != nil {
		return nil, source, fmt.Errorf("invalid venue mapping %s: %w", source, err)
	}
	return m, source, nil
}

// ParseVenueMapping 解析YAML映射文档并补全默认值
func ParseVenueMapping(data []byte) (*VenueMapping, error) {
	var m VenueMapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *VenueMapping) applyDefaults() {
	if m.MinLength <= 0 {
		m.MinLength = DefaultMinLength
	}
	if m.Workshop.Suffix == "" {
		m.Workshop.Suffix = DefaultWorkshopSuffix
	}
	if len(m.Preprocessing.StripPatterns) == 0 {
		m.Preprocessing.StripPatterns = append([]string(nil), defaultStripPatterns...)
	}
	if len(m.Workshop.Patterns) == 0 {
		m.Workshop.Patterns = append([]string(nil), defaultWorkshopPatterns...)
	}
	for i := range m.Categories {
		for j := range m.Categories[i].Venues {
			if m.Categories[i].Venues[j].Type == "" {
				m.Categories[i].Venues[j].Type = model.VenueOther
			}
		}
	}
}

// Validate 检查文档结构（正则在编译阶段检查）
func (m *VenueMapping) Validate() error {
	if m.RuleCount() == 0 {
		return errors.New("no venue rules defined")
	}
	for _, c := range m.Categories {
		for _, v := range c.Venues {
			label := strings.TrimSpace(v.Label)
			if label == "" {
				return fmt.Errorf("category %q: venue without label", c.Name)
			}
			if len(v.Patterns) == 0 {
				return fmt.Errorf("venue %q: at least one pattern is required", label)
			}
			if !v.Type.Valid() {
				return fmt.Errorf("venue %q: unknown type %q", label, v.Type)
			}
		}
	}
	return nil
}

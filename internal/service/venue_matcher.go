package service

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"venue-analyze-go/config"
	"venue-analyze-go/internal/model"
	"venue-analyze-go/internal/utils"
)

// VenueRule 一条有序的venue规则，任一正向模式命中且没有反向模式命中即选中
type VenueRule struct {
	Label    string
	Type     model.VenueType
	Category string
	Patterns []string
	Negative []string

	patterns []*regexp.Regexp
	negative []*regexp.Regexp
}

// Matches 判断规则是否命中
func (r *VenueRule) Matches(text string) bool {
	hit := false
	for _, re := range r.patterns {
		if re.MatchString(text) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, re := range r.negative {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}

// IsConference 会议类规则才加workshop后缀
func (r *VenueRule) IsConference() bool {
	return r.Type == model.VenueConference
}

// VenueMatch 单条venue的判定记录
type VenueMatch struct {
	Raw      string           `json:"raw"`
	Cleaned  string           `json:"cleaned"`
	Label    string           `json:"label,omitempty"`
	Rule     string           `json:"rule,omitempty"`
	Category string           `json:"category,omitempty"`
	Type     model.VenueType  `json:"type,omitempty"`
	Workshop bool             `json:"workshop"`
	Fallback bool             `json:"fallback"`
	Skip     model.SkipReason `json:"skip,omitempty"`
}

// Skipped 是否被跳过
func (m VenueMatch) Skipped() bool {
	return m.Skip != model.SkipNone
}

// VenueMatcher venue标准化器
type VenueMatcher struct {
	rules           []*VenueRule
	strip           []*regexp.Regexp
	workshop        []*regexp.Regexp
	workshopEnabled bool
	workshopSuffix  string
	minLength       int
	generic         map[string]bool
	prefixes        []string
	suffixes        []string
	source          string
}

// NewVenueMatcher 编译映射文档，任何正则错误都会返回
func NewVenueMatcher(mapping *config.VenueMapping, source string) (*VenueMatcher, error) {
	if mapping == nil {
		return nil, fmt.Errorf("venue mapping is nil")
	}

	m := &VenueMatcher{
		workshopEnabled: mapping.Workshop.IsEnabled(),
		workshopSuffix:  mapping.Workshop.Suffix,
		minLength:       mapping.MinLength,
		generic:         make(map[string]bool, len(mapping.GenericTerms)),
		prefixes:        boilerplateList(mapping.Fallback.Prefixes),
		suffixes:        boilerplateList(mapping.Fallback.Suffixes),
		source:          source,
	}
	if m.minLength <= 0 {
		m.minLength = config.DefaultMinLength
	}

	var err error
	if m.strip, err = compileAll(mapping.Preprocessing.StripPatterns); err != nil {
		return nil, fmt.Errorf("strip pattern: %w", err)
	}
	if m.workshop, err = compileAll(mapping.Workshop.Patterns); err != nil {
		return nil, fmt.Errorf("workshop pattern: %w", err)
	}
	for _, term := range mapping.GenericTerms {
		m.generic[strings.ToLower(strings.TrimSpace(term))] = true
	}

	for _, cat := range mapping.Categories {
		for _, def := range cat.Venues {
			rule := &VenueRule{
				Label:    strings.TrimSpace(def.Label),
				Type:     def.Type,
				Category: cat.Name,
				Patterns: def.Patterns,
				Negative: def.Negative,
			}
			if rule.patterns, err = compileAll(def.Patterns); err != nil {
				return nil, fmt.Errorf("venue %q: %w", rule.Label, err)
			}
			if rule.negative, err = compileAll(def.Negative); err != nil {
				return nil, fmt.Errorf("venue %q negative: %w", rule.Label, err)
			}
			m.rules = append(m.rules, rule)
		}
	}
	if len(m.rules) == 0 {
		return nil, fmt.Errorf("no venue rules defined")
	}
	return m, nil
}

// LoadVenueMatcher 加载映射文件，失败时退回内置规则（只记录警告，不返回错误）
func LoadVenueMatcher(path string, logger *slog.Logger) *VenueMatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mapping, source, err := config.LoadVenueMapping(path)
	if err == nil {
		var m *VenueMatcher
		if m, err = NewVenueMatcher(mapping, source); err == nil {
			logger.Debug("[Venue Matcher] Mapping loaded", "source", source, "rules", len(m.rules))
			return m
		}
	}

	logger.Warn("[Venue Matcher] Failed to load venue mapping, using built-in rules", "source", source, "error", err)
	return builtinVenueMatcher()
}

func builtinVenueMatcher() *VenueMatcher {
	m, err := NewVenueMatcher(config.BuiltinVenueMapping(), config.BuiltinMappingSource)
	if err != nil {
		panic(fmt.Sprintf("built-in venue mapping is invalid: %v", err))
	}
	return m
}

// Source 规则来源
func (m *VenueMatcher) Source() string {
	return m.source
}

// Rules 按匹配顺序返回规则
func (m *VenueMatcher) Rules() []*VenueRule {
	return m.rules
}

// Normalize 返回标准化后的venue名；被跳过时label为空并给出原因
func (m *VenueMatcher) Normalize(raw string) (string, model.SkipReason) {
	res := m.Explain(raw)
	return res.Label, res.Skip
}

// Explain 返回完整的判定过程
func (m *VenueMatcher) Explain(raw string) VenueMatch {
	res := VenueMatch{Raw: raw}

	if utils.IsBlank(raw) {
		res.Skip = model.SkipEmpty
		return res
	}

	cleaned := m.preprocess(raw)
	res.Cleaned = cleaned

	if utf8.RuneCountInString(cleaned) < m.minLength {
		res.Skip = model.SkipTooShort
		return res
	}
	if m.isGeneric(cleaned) {
		res.Skip = model.SkipGeneric
		return res
	}

	res.Workshop = m.isWorkshop(cleaned)

	for _, rule := range m.rules {
		if !rule.Matches(cleaned) {
			continue
		}
		res.Rule = rule.Label
		res.Category = rule.Category
		res.Type = rule.Type
		res.Label = rule.Label
		if res.Workshop && rule.IsConference() {
			res.Label = rule.Label + m.workshopSuffix
		}
		return res
	}

	res.Fallback = true
	label := fallbackLabel(cleaned, m.prefixes, m.suffixes)
	if utf8.RuneCountInString(label) < m.minLength || m.isGeneric(label) {
		res.Skip = model.SkipUnmatched
		return res
	}
	res.Label = label
	return res
}

// preprocess Unicode清理后按顺序去掉年份、卷期、页码等噪声
func (m *VenueMatcher) preprocess(raw string) string {
	s := utils.CleanText(raw)
	for _, re := range m.strip {
		s = re.ReplaceAllString(s, " ")
	}
	s = utils.CollapseSpaces(s)
	return utils.CollapseSpaces(utils.TrimSeparators(s))
}

func (m *VenueMatcher) isGeneric(s string) bool {
	return m.generic[strings.ToLower(s)]
}

func (m *VenueMatcher) isWorkshop(s string) bool {
	if !m.workshopEnabled {
		return false
	}
	for _, re := range m.workshop {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

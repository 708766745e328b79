package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"venue-analyze-go/internal/utils"
)

var trailingNumbers = regexp.MustCompile(`(?:[\s,;:/-]+\d+)+\s*$`)

// fallbackLabel 没有规则命中时的清理流程，每一步都是纯函数
func fallbackLabel(s string, prefixes, suffixes []string) string {
	s = stripPrefixes(s, prefixes)
	s = cutAtDelimiter(s)
	s = stripPrefixes(s, prefixes)
	s = stripSuffixes(s, suffixes)
	s = stripTrailingNumbers(s)
	return utils.CollapseSpaces(utils.TrimSeparators(s))
}

// boilerplateList 小写并按长度降序，保证"proceedings of the"先于"proceedings"
func boilerplateList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it != "" {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}

// stripPrefixes 去掉开头的套话，直到没有可去的
func stripPrefixes(s string, prefixes []string) string {
	s = strings.TrimSpace(s)
	for {
		changed := false
		for _, p := range prefixes {
			if len(s) < len(p) || !strings.EqualFold(s[:len(p)], p) {
				continue
			}
			if !endsAtBoundary(p, s[len(p):]) {
				continue
			}
			s = strings.TrimSpace(s[len(p):])
			changed = true
			break
		}
		if !changed || s == "" {
			return s
		}
	}
}

// stripSuffixes 去掉结尾的套话
func stripSuffixes(s string, suffixes []string) string {
	s = strings.TrimSpace(s)
	for {
		changed := false
		for _, suf := range suffixes {
			if len(s) < len(suf) || !strings.EqualFold(s[len(s)-len(suf):], suf) {
				continue
			}
			head := s[:len(s)-len(suf)]
			if head != "" {
				r, _ := utf8.DecodeLastRuneInString(head)
				if isWordRune(r) {
					continue
				}
			}
			s = strings.TrimSpace(head)
			changed = true
			break
		}
		if !changed || s == "" {
			return s
		}
	}
}

// cutAtDelimiter 截到第一个逗号、句号或左括号
func cutAtDelimiter(s string) string {
	if i := strings.IndexAny(s, ",.("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// stripTrailingNumbers 去掉结尾的年份、卷号等数字
func stripTrailingNumbers(s string) string {
	return strings.TrimSpace(trailingNumbers.ReplaceAllString(s, ""))
}

// endsAtBoundary 前缀后面必须是词边界，"the"不能吃掉"Theory"
func endsAtBoundary(prefix, rest string) bool {
	if rest == "" || strings.HasSuffix(prefix, ".") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var spaceRun = regexp.MustCompile(`\s+`)

// 页面文本里常见的特殊字符
var textReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u202f", " ",
	"\u200b", "",
	"\u2013", "-",
	"\u2014", "-",
	"\u2019", "'",
)

// CleanText 标准化页面抓取的文本：NFKC、特殊空白、破折号，最后压缩空白
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = textReplacer.Replace(s)
	return CollapseSpaces(s)
}

// CollapseSpaces 合并连续空白并去掉首尾空白
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// TrimSeparators 去掉首尾多余的分隔符
func TrimSeparators(s string) string {
	return strings.Trim(s, " ,;:-/")
}

// IsBlank 是否只包含空白
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// HTMLFetcher 获取Scholar论文列表的一页HTML
type HTMLFetcher interface {
	FetchScholarPage(ctx context.Context, scholarID string, cstart, pageSize int) (string, error)
}

// pageCounter 可选接口：事先知道某一页是否存在（离线文件）
type pageCounter interface {
	HasPage(cstart, pageSize int) bool
}

var (
	// ErrNoMorePages 请求的分页不存在
	ErrNoMorePages = errors.New("no more pages")
	// ErrInvalidScholarID 无法识别的scholar id或URL
	ErrInvalidScholarID = errors.New("invalid scholar id or profile url")
)

// ScholarBaseURL Scholar个人主页
const ScholarBaseURL = "https://scholar.google.com/citations"

// DefaultPageSize Scholar单页最多返回100篇
const DefaultPageSize = 100

var scholarIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,14}$`)

// IsScholarID Google Scholar ID 通常是12位字母数字组合，如 "JicYPdAAAAAJ"
func IsScholarID(query string) bool {
	return scholarIDPattern.MatchString(query)
}

// ParseScholarID 从 scholar_id 或主页URL中取出 scholar_id
// 支持格式: https://scholar.google.com/citations?user=dOad5HoAAAAJ&hl=en
func ParseScholarID(query string) (string, error) {
	query = strings.TrimSpace(query)
	if IsScholarID(query) {
		return query, nil
	}
	if !strings.Contains(query, "scholar.google.") {
		return "", fmt.Errorf("%w: %q", ErrInvalidScholarID, query)
	}
	if !strings.Contains(query, "://") {
		query = "https://" + query
	}
	u, err := url.Parse(query)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidScholarID, err)
	}
	id := u.Query().Get("user")
	if !IsScholarID(id) {
		return "", fmt.Errorf("%w: %q has no user parameter", ErrInvalidScholarID, query)
	}
	return id, nil
}

// ScholarPageURL 拼接分页URL
func ScholarPageURL(base, scholarID string, cstart, pageSize int) string {
	if base == "" {
		base = ScholarBaseURL
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := url.Values{}
	q.Set("user", scholarID)
	q.Set("hl", "en")
	q.Set("cstart", fmt.Sprint(cstart))
	q.Set("pagesize", fmt.Sprint(pageSize))
	return base + "?" + q.Encode()
}

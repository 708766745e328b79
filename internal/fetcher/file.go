package fetcher

import (
	"context"
	"fmt"
	"os"
)

// FileFetcher 离线分析：按顺序读取保存下来的列表页，一个文件一页
type FileFetcher struct {
	paths []string
}

// NewFileFetcher 创建文件获取器
func NewFileFetcher(paths ...string) *FileFetcher {
	return &FileFetcher{paths: paths}
}

// FetchScholarPage scholarID 被忽略，第 cstart/pageSize 个文件就是对应页
func (f *FileFetcher) FetchScholarPage(ctx context.Context, scholarID string, cstart, pageSize int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	idx, ok := f.index(cstart, pageSize)
	if !ok {
		return "", ErrNoMorePages
	}
	data, err := os.ReadFile(f.paths[idx])
	if err != nil {
		return "", fmt.Errorf("read saved page: %w", err)
	}
	return string(data), nil
}

// HasPage 是否还有对应的文件
func (f *FileFetcher) HasPage(cstart, pageSize int) bool {
	_, ok := f.index(cstart, pageSize)
	return ok
}

func (f *FileFetcher) index(cstart, pageSize int) (int, bool) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	idx := cstart / pageSize
	return idx, cstart >= 0 && idx < len(f.paths)
}

package service

import (
	"sort"

	"venue-analyze-go/internal/model"
)

// VenueTally 按首次出现顺序记录每个venue的计数
type VenueTally struct {
	order  []string
	counts map[string]int
}

// NewVenueTally 创建计数器
func NewVenueTally() *VenueTally {
	return &VenueTally{counts: make(map[string]int)}
}

// Add 计数加一
func (t *VenueTally) Add(label string) {
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label]++
}

// Total 计数总和
func (t *VenueTally) Total() int {
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// Len 不同venue数量
func (t *VenueTally) Len() int {
	return len(t.order)
}

// Ranked 按计数降序，计数相同保持首次出现顺序
func (t *VenueTally) Ranked() []model.VenueCount {
	out := make([]model.VenueCount, 0, len(t.order))
	for _, label := range t.order {
		out = append(out, model.VenueCount{Label: label, Count: t.counts[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

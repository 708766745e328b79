package fetcher

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"venue-analyze-go/internal/model"
)

// RowSelector 论文行
const RowSelector = "tr.gsc_a_tr"

// TriggerSelectors "加载更多"控件的结构化选择器，按顺序尝试
var TriggerSelectors = []string{
	"#gsc_bpf_more",
	"button#gsc_bpf_more",
	".gsc_pgn_pnx",
	`button[onclick*="gsc_pgn"]`,
	`button[onclick*="more"]`,
	".gsc_pgn button",
}

// TriggerTextSelector 按文字查找控件时的候选元素
const TriggerTextSelector = `button, a, span[role="button"]`

// ScholarParser Google Scholar HTML解析器
type ScholarParser struct{}

// NewScholarParser 创建解析器
func NewScholarParser() *ScholarParser {
	return &ScholarParser{}
}

// ListingPage 一页论文列表
type ListingPage struct {
	Profile string
	Entries []model.RawVenueEntry
	// Trigger 页面上可用的"加载更多"控件，没有时为nil
	Trigger *TriggerInfo
}

// TriggerInfo 静态页面里找到的控件
type TriggerInfo struct {
	Selector string
	Text     string
}

// Describe 日志用
func (t *TriggerInfo) Describe() string {
	return fmt.Sprintf("%s %q", t.Selector, t.Text)
}

// Parse 解析一页HTML
func (p *ScholarParser) Parse(html string) (*ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return p.ParseDocument(doc), nil
}

// ParseDocument 解析已加载的文档
func (p *ScholarParser) ParseDocument(doc *goquery.Document) *ListingPage {
	page := &ListingPage{
		Profile: strings.TrimSpace(doc.Find("#gsc_prf_in").First().Text()),
		Entries: []model.RawVenueEntry{},
	}
	doc.Find(RowSelector).Each(func(i int, row *goquery.Selection) {
		page.Entries = append(page.Entries, venueEntry(row))
	})
	page.Trigger = findTrigger(doc)
	return page
}

// CountRows 只统计行数
func CountRows(html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse html: %w", err)
	}
	return doc.Find(RowSelector).Length(), nil
}

// venueEntry 第二个 .gs_gray 一般是venue，第一个是作者
func venueEntry(row *goquery.Selection) model.RawVenueEntry {
	var el *goquery.Selection
	gray := row.Find(".gs_gray")
	switch {
	case gray.Length() >= 2:
		el = gray.Eq(1)
	case gray.Length() == 1:
		el = gray.Eq(0)
	default:
		for _, sel := range []string{"td:nth-child(3) .gs_gray", ".gsc_a_j", ".gs_gray"} {
			if s := row.Find(sel).First(); s.Length() > 0 {
				el = s
				break
			}
		}
	}
	if el == nil {
		return model.RawVenueEntry{}
	}
	return model.RawVenueEntry{Text: strings.TrimSpace(el.Text()), Found: true}
}

// findTrigger 先按结构化选择器找（每个选择器只看第一个匹配），再按文字找
func findTrigger(doc *goquery.Document) *TriggerInfo {
	for _, sel := range TriggerSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(s.Text())
		if text != "" && usableControl(s) {
			return &TriggerInfo{Selector: sel, Text: text}
		}
	}

	var found *TriggerInfo
	doc.Find(TriggerTextSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !IsMoreText(text) || !usableControl(s) {
			return true
		}
		found = &TriggerInfo{Selector: goquery.NodeName(s), Text: text}
		return false
	})
	return found
}

// IsMoreText 控件文字是否像"加载更多"
func IsMoreText(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.Contains(t, "show more") || t == "more" || t == "show"
}

// usableControl 可见、可点击、不在论文行里、不是引用详情链接
func usableControl(s *goquery.Selection) bool {
	if _, disabled := s.Attr("disabled"); disabled {
		return false
	}
	if v, _ := s.Attr("aria-disabled"); v == "true" {
		return false
	}
	if s.Closest(RowSelector).Length() > 0 {
		return false
	}
	if goquery.NodeName(s) == "a" {
		if href, _ := s.Attr("href"); strings.Contains(href, "view_op=view_citation") {
			return false
		}
	}
	for n := s; n.Length() > 0; n = n.Parent() {
		if hidden(n) {
			return false
		}
	}
	return true
}

func hidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	style, _ := s.Attr("style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

package model

// VenueType venue类型标签
type VenueType string

const (
	VenueConference VenueType = "conference"
	VenueJournal    VenueType = "journal"
	VenuePreprint   VenueType = "preprint"
	VenuePublisher  VenueType = "publisher"
	VenueOther      VenueType = "other"
)

// Valid 判断类型是否合法
func (t VenueType) Valid() bool {
	switch t {
	case VenueConference, VenueJournal, VenuePreprint, VenuePublisher, VenueOther:
		return true
	}
	return false
}

// SkipReason 跳过原因
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipMissing   SkipReason = "missing"   // 行内找不到venue片段
	SkipEmpty     SkipReason = "empty"     // 空字符串
	SkipTooShort  SkipReason = "too_short" // 预处理后长度不足
	SkipGeneric   SkipReason = "generic"   // 通用词
	SkipUnmatched SkipReason = "unmatched" // 规则和fallback都没结果
)

// RawVenueEntry 单篇论文的原始venue文本
type RawVenueEntry struct {
	Text  string `json:"text"`
	Found bool   `json:"found"` // false表示这一行没有venue片段
}

// VenueCount 单个venue的计数
type VenueCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StopReason 翻页循环结束原因
type StopReason string

const (
	StopNoTrigger   StopReason = "no_trigger"
	StopNoGrowth    StopReason = "no_growth"
	StopMaxAttempts StopReason = "max_attempts"
	StopError       StopReason = "error"
	StopCancelled   StopReason = "cancelled"
)

// Partial 是否提前结束（部分加载）
func (r StopReason) Partial() bool {
	return r == StopError || r == StopCancelled || r == StopMaxAttempts
}

// CollectionStats 翻页统计
type CollectionStats struct {
	InitialCount int        `json:"initialCount"`
	FinalCount   int        `json:"finalCount"`
	Attempts     int        `json:"attempts"`
	Reason       StopReason `json:"reason"`
	Error        string     `json:"error,omitempty"`
}

// AnalysisResult 分析结果信封，成功失败都用这个结构输出
type AnalysisResult struct {
	Venues         []VenueCount       `json:"venues"`
	TotalFound     int                `json:"totalFound"`
	TotalProcessed int                `json:"totalProcessed"`
	TotalSkipped   int                `json:"totalSkipped"`
	SkipReasons    map[SkipReason]int `json:"skipReasons,omitempty"`
	Success        bool               `json:"success"`
	Error          string             `json:"error,omitempty"`

	PassID        string           `json:"passId,omitempty"`
	Profile       string           `json:"profile,omitempty"`
	MappingSource string           `json:"mappingSource,omitempty"`
	Collection    *CollectionStats `json:"collection,omitempty"`
}

// NewErrorResult 创建失败信封
func NewErrorResult(err error) *AnalysisResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &AnalysisResult{
		Venues:  []VenueCount{},
		Success: false,
		Error:   msg,
	}
}

// UniqueVenues 不同venue数量
func (r *AnalysisResult) UniqueVenues() int {
	return len(r.Venues)
}

// Top 返回前n个venue，n<=0 返回全部
func (r *AnalysisResult) Top(n int) []VenueCount {
	if n <= 0 || n >= len(r.Venues) {
		return r.Venues
	}
	return r.Venues[:n]
}

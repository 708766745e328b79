package model

// PassStatus 分析过程状态
type PassStatus string

const (
	PassAnalyzing PassStatus = "analyzing"
	PassCompleted PassStatus = "completed"
	PassError     PassStatus = "error"
)

// AnalysisState 进度事件 - 每次更新都输出完整结构
type AnalysisState struct {
	Status        PassStatus      `json:"status"`
	PassID        string          `json:"pass_id,omitempty"`
	Query         string          `json:"query,omitempty"`
	Overall       int             `json:"overall"`        // 整体进度 0-100
	CurrentAction string          `json:"current_action"` // 当前在做什么
	Result        *AnalysisResult `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// NewAnalysisState 创建初始状态
func NewAnalysisState() *AnalysisState {
	return &AnalysisState{
		Status:        PassAnalyzing,
		Overall:       0,
		CurrentAction: "Initializing...",
	}
}

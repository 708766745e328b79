// Package progress 输出分析进度：终端文本或 data: {json} 事件流
package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"venue-analyze-go/internal/model"
)

// Mode 输出方式
type Mode string

const (
	ModeText   Mode = "text"
	ModeEvents Mode = "events"
	ModeQuiet  Mode = "quiet"
)

var (
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Writer 进度写入器，每次更新都输出完整状态
type Writer struct {
	w         io.Writer
	mode      Mode
	mu        sync.Mutex
	state     *model.AnalysisState
	stopHeart chan struct{}
	stopOnce  sync.Once
}

// NewWriter 创建写入器
func NewWriter(w io.Writer, mode Mode) *Writer {
	return &Writer{
		w:         w,
		mode:      mode,
		state:     model.NewAnalysisState(),
		stopHeart: make(chan struct{}),
	}
}

// StartHeartbeat 事件模式下定期发送心跳，让消费端知道还活着
func (s *Writer) StartHeartbeat(interval time.Duration) {
	if s.mode != ModeEvents || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				heartbeat := map[string]any{
					"status":         "heartbeat",
					"overall":        s.state.Overall,
					"current_action": s.state.CurrentAction,
				}
				data, _ := json.Marshal(heartbeat)
				fmt.Fprintf(s.w, "data: %s\n\n", data)
				s.mu.Unlock()
			case <-s.stopHeart:
				return
			}
		}
	}()
}

// StopHeartbeat 停止心跳，可重复调用
func (s *Writer) StopHeartbeat() {
	s.stopOnce.Do(func() { close(s.stopHeart) })
}

// State 当前状态的拷贝
func (s *Writer) State() model.AnalysisState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state
}

// Start 新一轮分析
func (s *Writer) Start(passID, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = model.NewAnalysisState()
	s.state.PassID = passID
	s.state.Query = query
	return s.send()
}

// SetAction 更新当前动作和进度，进度只增不减
func (s *Writer) SetAction(progress int, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress > s.state.Overall {
		s.state.Overall = min(progress, 100)
	}
	s.state.CurrentAction = action
	return s.send()
}

// Done 全部完成
func (s *Writer) Done(result *model.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = model.PassCompleted
	s.state.Overall = 100
	s.state.CurrentAction = "Analysis completed"
	s.state.Result = result
	return s.send()
}

// Fail 分析失败
func (s *Writer) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = model.PassError
	s.state.CurrentAction = "Analysis failed"
	if err != nil {
		s.state.Error = err.Error()
	}
	return s.send()
}

func (s *Writer) send() error {
	switch s.mode {
	case ModeEvents:
		data, err := json.Marshal(s.state)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(s.w, "data: %s\n\n", data)
		return err
	case ModeText:
		_, err := fmt.Fprintln(s.w, s.line())
		return err
	}
	return nil
}

func (s *Writer) line() string {
	pct := barStyle.Render(fmt.Sprintf("[%3d%%]", s.state.Overall))
	switch s.state.Status {
	case model.PassCompleted:
		return pct + " " + doneStyle.Render(s.state.CurrentAction)
	case model.PassError:
		return pct + " " + errorStyle.Render(s.state.CurrentAction+": "+s.state.Error)
	}
	return pct + " " + actionStyle.Render(s.state.CurrentAction)
}

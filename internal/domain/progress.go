package domain

// ProgressEvent 是 enrich 运行过程中对外发布的进度/结果事件。
//
// 两种形态共用同一结构：
// - 过程事件：Message/Progress/Total/Percentage（Success == nil）
// - 终止事件：Message/Success + UpdatedCount/TotalCount/LastUpdate
//
// 事件经 JSON 序列化后按单帧投递（SSE 的 data: 行），不存在半个事件。
type ProgressEvent struct {
	Message    string `json:"message"`
	Progress   int    `json:"progress,omitempty"`
	Total      int    `json:"total,omitempty"`
	Percentage int    `json:"percentage,omitempty"`

	Success      *bool  `json:"success,omitempty"`
	UpdatedCount int    `json:"updated_count,omitempty"`
	TotalCount   int    `json:"total_count,omitempty"`
	LastUpdate   string `json:"last_update,omitempty"`
}

// Terminal 表示这是一次运行的最后一个事件（消费端据此关闭流）。
func (e ProgressEvent) Terminal() bool { return e.Success != nil }

// BoolPtr 用于构造 Success 字段。
func BoolPtr(b bool) *bool { return &b }

package framework

// Message 消息结构（框架内部流转）
type Message struct {
	ID       string                 // 消息 ID
	Queue    string                 // 队列名称
	Data     []byte                 // 原始 Job 数据
	Attempts int                    // 已投递次数（消息源支持时填充）
	Extra    map[string]interface{} // 扩展字段
}

// 处理结果（指标标签）
const (
	ResultSuccess = "success"
	ResultRelease = "release"
	ResultBury    = "bury"
)

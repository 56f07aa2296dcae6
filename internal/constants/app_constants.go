package constants

const (
	// AnalyzerVersion 写入提交记录, 规则或词表变化时递增
	AnalyzerVersion = "1.0"

	// EventAnalysisSubmitted outbox 事件类型
	EventAnalysisSubmitted = "resume.analysis.submitted"
)

// 异步分析提交的状态
const (
	StatusPendingAnalysis  = "PENDING_ANALYSIS"
	StatusAnalyzing        = "ANALYZING"
	StatusCompleted        = "COMPLETED"
	StatusFailedUnreadable = "FAILED_UNREADABLE"
	StatusFailed           = "FAILED"
)

// AllowedStatusesForAnalysis 消费者只处理这些状态的提交, 其余视为重复消息
// ANALYZING 允许重入, 处理中途崩溃后消息会被重新投递
var AllowedStatusesForAnalysis = []string{StatusPendingAnalysis, StatusAnalyzing}

// IsStatusAllowed 判断状态是否在集合中
func IsStatusAllowed(status string, allowed []string) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus 完成或失败
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailedUnreadable, StatusFailed:
		return true
	}
	return false
}

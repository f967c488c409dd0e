// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：iv.<域>.<动作>，尽量稳定且向后兼容.
// 域：batch(批次生命周期)、file(文件入库)、error(错误上报)

const (
	// 批次生命周期领域.
	TopicBatchStarted   = "iv.batch.started"   // 批次创建，进入 IN_PROGRESS
	TopicBatchCompleted = "iv.batch.completed" // 客户端确认完成，下游据此开始处理文件
	TopicBatchFailed    = "iv.batch.failed"    // 客户端报告失败
	TopicBatchCancelled = "iv.batch.cancelled" // 客户端取消
	TopicBatchExpired   = "iv.batch.expired"   // 超时扫描置为 NOT_COMPLETED

	// 文件入库领域.
	TopicFileStored = "iv.file.stored" // 对象写入且元数据已落库

	// 错误上报领域.
	TopicErrorLogged = "iv.error.logged" // 新的错误日志

	// 通配模式（NATS 风格）.
	PatternBatchAll = "iv.batch.*"
	PatternAll      = "iv.>"
)

// AllTopics 返回全部具体主题，用于订阅调试与 CLI 展示.
func AllTopics() []string {
	return []string{
		TopicBatchStarted,
		TopicBatchCompleted,
		TopicBatchFailed,
		TopicBatchCancelled,
		TopicBatchExpired,
		TopicFileStored,
		TopicErrorLogged,
	}
}

// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：vv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：video(视频)；任务队列的处理消息也在 video 域下（vv.video.process.*）
// 状态：请求(requested)、进行中(progress)、完成(completed)、失败(failed)

const (
	// 视频生命周期.
	TopicVideoUploaded = "vv.video.uploaded" // 原片已写入对象存储且元数据落库
	TopicVideoDeleted  = "vv.video.deleted"  // 视频（连同原片与封面）被删除
	TopicVideoViewed   = "vv.video.viewed"   // 视频被播放（用于热度统计）

	// 后台处理流水线.
	TopicVideoProcessRequested = "vv.video.process.requested" // 请求对指定视频执行处理流水线
	TopicVideoProgress         = "vv.video.process.progress"  // 处理进行中，携带进度与阶段
	TopicVideoProcessed        = "vv.video.process.completed" // 处理完成，携带最终元数据与评分
	TopicVideoProcessFailed    = "vv.video.process.failed"    // 处理失败（单次尝试或终态）
)

// VideoTopics 视频领域主题集合，实时推送桥接订阅使用.
var VideoTopics = []string{
	TopicVideoUploaded, TopicVideoDeleted, TopicVideoViewed,
	TopicVideoProcessRequested, TopicVideoProgress,
	TopicVideoProcessed, TopicVideoProcessFailed,
}

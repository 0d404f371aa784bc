package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishVideoUploaded 发布 vv.video.uploaded 事件.
// 原片写入对象存储并同步元数据到数据库后调用，通知下游流程.
func PublishVideoUploaded(pub message.Publisher, payload VideoUploadedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicVideoUploaded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicVideoUploaded, msg)
}

// PublishVideoDeleted 发布 vv.video.deleted 事件.
func PublishVideoDeleted(pub message.Publisher, payload VideoDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicVideoDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicVideoDeleted, msg)
}

// PublishVideoViewed 发布 vv.video.viewed 事件.
func PublishVideoViewed(pub message.Publisher, payload VideoViewedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicVideoViewed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicVideoViewed, msg)
}

// PublishProcessRequested 发布 vv.video.process.requested 事件，驱动队列消费.
func PublishProcessRequested(pub message.Publisher, payload ProcessRequestedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicVideoProcessRequested, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicVideoProcessRequested, msg)
}

// PublishVideoProgress 发布 vv.video.process.progress 事件.
// 同一视频同一次尝试内按非递减进度发布.
func PublishVideoProgress(pub message.Publisher, payload VideoProgressPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicVideoProgress, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicVideoProgress, msg)
}

// PublishVideoProcessed 发布 vv.video.process.completed 事件.
// 必须在数据库中 status=completed 落库之后发布，订阅方回读时能观察到终态.
func PublishVideoProcessed(pub message.Publisher, payload VideoProcessedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicVideoProcessed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicVideoProcessed, msg)
}

// PublishVideoProcessFailed 发布 vv.video.process.failed 事件.
func PublishVideoProcessFailed(pub message.Publisher, payload VideoProcessFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicVideoProcessFailed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicVideoProcessFailed, msg)
}

// ParseProcessRequested 将 Watermill 消息解析为强类型 Envelope.
func ParseProcessRequested(msg *message.Message) (Message[ProcessRequestedPayload], error) {
	return ParseWatermillMessage[ProcessRequestedPayload](msg)
}

// ParseVideoProgress 将 Watermill 消息解析为强类型 Envelope.
func ParseVideoProgress(msg *message.Message) (Message[VideoProgressPayload], error) {
	return ParseWatermillMessage[VideoProgressPayload](msg)
}

// ParseVideoProcessed 将 Watermill 消息解析为强类型 Envelope.
func ParseVideoProcessed(msg *message.Message) (Message[VideoProcessedPayload], error) {
	return ParseWatermillMessage[VideoProcessedPayload](msg)
}

// ParseVideoProcessFailed 将 Watermill 消息解析为强类型 Envelope.
func ParseVideoProcessFailed(msg *message.Message) (Message[VideoProcessFailedPayload], error) {
	return ParseWatermillMessage[VideoProcessFailedPayload](msg)
}

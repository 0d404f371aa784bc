package queue_test

import (
	"testing"

	"github.com/yeisme/vidvault/pkg/queue"
)

// TestEnvelopeRoundTrip 信封编码后能解回相同负载.
func TestEnvelopeRoundTrip(t *testing.T) {
	payload := queue.VideoProgressPayload{
		Video:    queue.VideoRef{VideoID: "01v", OrganizationID: "01o"},
		JobID:    "job-1",
		Progress: 30,
		Stage:    "thumbnail",
		Message:  "generating thumbnail",
	}

	msg, err := queue.NewWatermillMessage(queue.TopicVideoProgress, payload, queue.WithProducer("worker"))
	if err != nil {
		t.Fatalf("NewWatermillMessage: %v", err)
	}

	if msg.Metadata.Get("topic") != queue.TopicVideoProgress {
		t.Errorf("topic metadata = %q", msg.Metadata.Get("topic"))
	}

	env, err := queue.ParseVideoProgress(msg)
	if err != nil {
		t.Fatalf("ParseVideoProgress: %v", err)
	}

	if env.Header.Topic != queue.TopicVideoProgress {
		t.Errorf("header topic = %q", env.Header.Topic)
	}

	if env.Header.Producer != "worker" {
		t.Errorf("producer = %q", env.Header.Producer)
	}

	if env.Payload != payload {
		t.Errorf("payload round trip mismatch: %+v", env.Payload)
	}
}

// TestHeaderDefaults 头部默认填充 occurred_at 与版本.
func TestHeaderDefaults(t *testing.T) {
	hdr := queue.NewEventHeader(queue.TopicVideoUploaded)

	if hdr.OccurredAt.IsZero() {
		t.Error("expected occurred_at to be set")
	}

	if hdr.Version != queue.PayloadVersionV1 {
		t.Errorf("version = %q", hdr.Version)
	}
}

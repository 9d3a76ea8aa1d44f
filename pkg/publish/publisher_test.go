package publish

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/consultease/deskunit/pkg/log"
	"github.com/consultease/deskunit/pkg/queue"
)

func newTestPublisher(transport Transport) (*Publisher, *queue.Queue) {
	q := queue.New(queue.DefaultCapacity)
	p := NewPublisher(DefaultConfig(), transport, q, nil, log.NoopLogger{}, 1)
	p.sleep = func(time.Duration) {} // keep tests instantaneous
	return p, q
}

func TestPublishReliableSendsImmediately(t *testing.T) {
	mock := NewMockTransport()
	p, q := newTestPublisher(mock)

	outcome := p.PublishReliable("consultease/faculty/1/responses", []byte(`{"a":1}`), ClassResponse)
	if outcome != OutcomeSent {
		t.Fatalf("outcome = %v, want sent", outcome)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d after immediate success", q.Len())
	}
	sent := mock.Sent()
	if len(sent) != 1 || sent[0].Retained {
		t.Fatalf("sent = %+v, want one non-retained message", sent)
	}
}

func TestPublishReliableRetriesOnceThenSucceeds(t *testing.T) {
	mock := NewMockTransport()
	mock.FailNext(1)
	p, q := newTestPublisher(mock)

	outcome := p.PublishReliable("t", []byte("x"), ClassResponse)
	if outcome != OutcomeSent {
		t.Fatalf("outcome = %v, want sent after second attempt", outcome)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0", q.Len())
	}
}

func TestPublishReliableQueuesOnFailure(t *testing.T) {
	mock := NewMockTransport()
	mock.FailAll(true)
	p, q := newTestPublisher(mock)

	outcome := p.PublishReliable("t", []byte("x"), ClassResponse)
	if outcome != OutcomeQueued {
		t.Fatalf("outcome = %v, want queued", outcome)
	}
	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1", q.Len())
	}
	head, _ := q.Peek()
	if !head.IsResponse || head.ID == "" {
		t.Errorf("queued message = %+v, want response with generated ID", head)
	}
}

func TestPublishReliableQueuesWhenDisconnected(t *testing.T) {
	mock := NewMockTransport()
	mock.SetConnected(false)
	p, q := newTestPublisher(mock)

	outcome := p.PublishReliable("t", []byte("x"), ClassStatus)
	if outcome != OutcomeQueued {
		t.Fatalf("outcome = %v, want queued", outcome)
	}
	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1", q.Len())
	}
	// No attempts should have reached the transport at all.
	if n := len(mock.Sent()); n != 0 {
		t.Errorf("transport saw %d publishes while disconnected", n)
	}
}

func TestPublishReliableRejectsOversizePayload(t *testing.T) {
	mock := NewMockTransport()
	p, q := newTestPublisher(mock)

	big := bytes.Repeat([]byte("x"), DefaultMaxPayloadSize+1)
	outcome := p.PublishReliable("t", big, ClassResponse)
	if outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", outcome)
	}
	if q.Len() != 0 {
		t.Error("oversize payload was queued")
	}
	if len(mock.Sent()) != 0 {
		t.Error("oversize payload reached the transport")
	}
}

func TestDrainQueueDeliversOldestFirst(t *testing.T) {
	mock := NewMockTransport()
	mock.SetConnected(false)
	p, _ := newTestPublisher(mock)

	for _, id := range []string{"A", "B", "C"} {
		p.PublishReliable("t", []byte(id), ClassResponse)
	}
	mock.SetConnected(true)

	// One message per tick, oldest first.
	for i, want := range []string{"A", "B", "C"} {
		if !p.DrainQueue(time.Now()) {
			t.Fatalf("DrainQueue tick %d delivered nothing", i)
		}
		sent := mock.Sent()
		if len(sent) != i+1 {
			t.Fatalf("after tick %d transport saw %d publishes", i, len(sent))
		}
		if string(sent[i].Payload) != want {
			t.Errorf("tick %d delivered %q, want %q", i, sent[i].Payload, want)
		}
	}

	if p.QueueLen() != 0 {
		t.Errorf("queue length = %d after full drain", p.QueueLen())
	}
	if p.DrainQueue(time.Now()) {
		t.Error("DrainQueue on empty queue reported a delivery")
	}
}

func TestDrainQueueSkipsWhileDisconnected(t *testing.T) {
	mock := NewMockTransport()
	mock.SetConnected(false)
	p, _ := newTestPublisher(mock)

	p.PublishReliable("t", []byte("x"), ClassResponse)
	if p.DrainQueue(time.Now()) {
		t.Error("DrainQueue delivered while disconnected")
	}
	if p.QueueLen() != 1 {
		t.Errorf("queue length = %d, want 1", p.QueueLen())
	}
}

func TestDrainQueueDropsAfterMaxRetries(t *testing.T) {
	mock := NewMockTransport()
	mock.SetConnected(false)
	p, q := newTestPublisher(mock)

	p.PublishReliable("t", []byte("stale"), ClassResponse)
	p.PublishReliable("t", []byte("fresh"), ClassResponse)

	mock.SetConnected(true)
	mock.FailAll(true)

	// Each failed tick bumps the head's retry count; at the bound the
	// head is dropped so the message behind it can go.
	for i := 0; i < DefaultMaxRetries; i++ {
		if p.DrainQueue(time.Now()) {
			t.Fatalf("tick %d reported delivery through a failing transport", i)
		}
	}
	if q.Len() != 1 {
		t.Fatalf("queue length = %d after retry exhaustion, want 1", q.Len())
	}
	head, _ := q.Peek()
	if string(head.Payload) != "fresh" {
		t.Errorf("head payload = %q, want the fresh message", head.Payload)
	}

	mock.FailAll(false)
	if !p.DrainQueue(time.Now()) {
		t.Fatal("fresh message not delivered after transport recovered")
	}
	sent := mock.Sent()
	if len(sent) != 1 || string(sent[0].Payload) != "fresh" {
		t.Errorf("delivered = %+v, want only the fresh message", sent)
	}
}

func TestQueueCapacityThroughPublisher(t *testing.T) {
	mock := NewMockTransport()
	mock.SetConnected(false)
	p, q := newTestPublisher(mock)

	// One more message than the queue holds.
	for i := 1; i <= queue.DefaultCapacity+1; i++ {
		p.PublishReliable("t", []byte(fmt.Sprintf("m%d", i)), ClassResponse)
	}
	if q.Len() != queue.DefaultCapacity {
		t.Fatalf("queue length = %d, want %d", q.Len(), queue.DefaultCapacity)
	}

	// The oldest message is the casualty; the rest survive in order.
	mock.SetConnected(true)
	var delivered []string
	for p.DrainQueue(time.Now()) {
		sent := mock.Sent()
		delivered = append(delivered, string(sent[len(sent)-1].Payload))
	}
	if len(delivered) != queue.DefaultCapacity {
		t.Fatalf("delivered %d messages, want %d", len(delivered), queue.DefaultCapacity)
	}
	if delivered[0] != "m2" {
		t.Errorf("first delivered = %s, want m2 (m1 evicted)", delivered[0])
	}
	if last := delivered[len(delivered)-1]; last != fmt.Sprintf("m%d", queue.DefaultCapacity+1) {
		t.Errorf("last delivered = %s, want m%d", last, queue.DefaultCapacity+1)
	}
}

func TestRestoreQueueFromSnapshot(t *testing.T) {
	path := t.TempDir() + "/queue.json"
	store := queue.NewStore(path)

	// A previous run left two messages behind.
	prev := queue.New(queue.DefaultCapacity)
	prev.Push(queue.Message{ID: "a", Topic: "t", Payload: []byte("a"), IsResponse: true})
	prev.Push(queue.Message{ID: "b", Topic: "t", Payload: []byte("b"), IsResponse: true})
	if err := store.Save(prev); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mock := NewMockTransport()
	q := queue.New(queue.DefaultCapacity)
	p := NewPublisher(DefaultConfig(), mock, q, store, log.NoopLogger{}, 1)
	p.sleep = func(time.Duration) {}

	if err := p.RestoreQueue(); err != nil {
		t.Fatalf("RestoreQueue failed: %v", err)
	}
	if p.QueueLen() != 2 {
		t.Fatalf("queue length = %d after restore, want 2", p.QueueLen())
	}

	if !p.DrainQueue(time.Now()) || !p.DrainQueue(time.Now()) {
		t.Fatal("restored messages not delivered")
	}
	sent := mock.Sent()
	if len(sent) != 2 || string(sent[0].Payload) != "a" || string(sent[1].Payload) != "b" {
		t.Errorf("delivered = %+v, want a then b", sent)
	}
}

func TestClassRetention(t *testing.T) {
	mock := NewMockTransport()
	p, _ := newTestPublisher(mock)

	p.PublishReliable("s", []byte("s"), ClassStatus)
	p.PublishReliable("r", []byte("r"), ClassResponse)
	p.PublishReliable("h", []byte("h"), ClassHeartbeat)

	sent := mock.Sent()
	if len(sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(sent))
	}
	if !sent[0].Retained {
		t.Error("status message not retained")
	}
	if sent[1].Retained {
		t.Error("response message retained")
	}
	if sent[2].Retained {
		t.Error("heartbeat message retained")
	}
}

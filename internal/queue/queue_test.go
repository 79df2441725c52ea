package queue

import (
	"errors"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/ned/internal/util"

	"github.com/rabbitmq/amqp091-go"
)

type published struct {
	key string
	msg amqp091.Publishing
}

type fakeChannel struct {
	declared   []string
	args       map[string]amqp091.Table
	published  []published
	publishErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{args: map[string]amqp091.Table{}}
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, args amqp091.Table) (amqp091.Queue, error) {
	f.declared = append(f.declared, name)
	f.args[name] = args
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) Publish(_, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{key: key, msg: msg})
	return nil
}

type fakeAcker struct {
	acks, nacks int
	requeued    bool
}

func (a *fakeAcker) Ack(uint64, bool) error { a.acks++; return nil }

func (a *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *fakeAcker) Reject(uint64, bool) error { return nil }

func TestSetupQueues(t *testing.T) {
	ch := newFakeChannel()
	if err := SetupQueues(ch, Queues); err != nil {
		t.Fatalf("SetupQueues: %v", err)
	}
	want := []string{"disambiguate_queue", "disambiguate_queue_dlq", "disambiguate_queue_retry"}
	if !reflect.DeepEqual(ch.declared, want) {
		t.Fatalf("declared %v, want %v", ch.declared, want)
	}
	retry := ch.args["disambiguate_queue_retry"]
	if retry["x-dead-letter-routing-key"] != "disambiguate_queue" {
		t.Fatalf("retry queue routes to %v", retry["x-dead-letter-routing-key"])
	}
	if retry["x-message-ttl"] != int32(10000) {
		t.Fatalf("retry ttl = %v", retry["x-message-ttl"])
	}
}

func TestPublishFIFO(t *testing.T) {
	ch := newFakeChannel()
	if err := PublishFIFO(ch, DisambiguateQueue, []byte(`{"document_id":"a"}`)); err != nil {
		t.Fatal(err)
	}
	if len(ch.published) != 1 || ch.published[0].key != DisambiguateQueue {
		t.Fatalf("published %+v", ch.published)
	}
	if ch.published[0].msg.DeliveryMode != amqp091.Persistent {
		t.Fatal("messages must be persistent")
	}
}

func TestHandleProcessingError(t *testing.T) {
	tests := []struct {
		name       string
		headers    amqp091.Table
		cause      error
		publishErr error
		wantKey    string
		wantTries  any
		wantAcks   int
		wantNacks  int
	}{
		{
			name:      "first failure goes to retry",
			cause:     errors.New("boom"),
			wantKey:   "disambiguate_queue_retry",
			wantTries: int32(1),
			wantAcks:  1,
		},
		{
			name:      "retry count increments",
			headers:   amqp091.Table{"x-retries": int32(4)},
			cause:     errors.New("boom"),
			wantKey:   "disambiguate_queue_retry",
			wantTries: int32(5),
			wantAcks:  1,
		},
		{
			name:      "exhausted retries go to dlq",
			headers:   amqp091.Table{"x-retries": int32(MaxRetries)},
			cause:     errors.New("boom"),
			wantKey:   "disambiguate_queue_dlq",
			wantTries: int32(MaxRetries),
			wantAcks:  1,
		},
		{
			name:     "permanent error goes to dlq",
			cause:    util.Permanent(errors.New("bad message")),
			wantKey:  "disambiguate_queue_dlq",
			wantAcks: 1,
		},
		{
			name:       "publish failure requeues",
			cause:      errors.New("boom"),
			publishErr: errors.New("channel closed"),
			wantNacks:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := newFakeChannel()
			ch.publishErr = tt.publishErr
			acker := &fakeAcker{}
			msg := amqp091.Delivery{Acknowledger: acker, DeliveryTag: 1, Headers: tt.headers, Body: []byte("x")}

			HandleProcessingError(ch, msg, DisambiguateQueue, tt.cause)

			if acker.acks != tt.wantAcks || acker.nacks != tt.wantNacks {
				t.Fatalf("acks=%d nacks=%d, want %d/%d", acker.acks, acker.nacks, tt.wantAcks, tt.wantNacks)
			}
			if tt.wantNacks > 0 {
				if !acker.requeued {
					t.Fatal("nack must requeue")
				}
				return
			}
			if len(ch.published) != 1 {
				t.Fatalf("published %d messages", len(ch.published))
			}
			p := ch.published[0]
			if p.key != tt.wantKey {
				t.Fatalf("published to %s, want %s", p.key, tt.wantKey)
			}
			if tt.wantTries != nil && p.msg.Headers["x-retries"] != tt.wantTries {
				t.Fatalf("x-retries = %v, want %v", p.msg.Headers["x-retries"], tt.wantTries)
			}
		})
	}
}

func TestRetryCount_DoesNotMutateDelivery(t *testing.T) {
	headers := amqp091.Table{"x-retries": int32(2)}
	ch := newFakeChannel()
	msg := amqp091.Delivery{Acknowledger: &fakeAcker{}, Headers: headers}
	HandleProcessingError(ch, msg, DisambiguateQueue, errors.New("boom"))
	if headers["x-retries"] != int32(2) {
		t.Fatalf("delivery headers changed to %v", headers["x-retries"])
	}
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    DisambiguateMsg
		wantErr bool
	}{
		{"mentions only", `{"document_id":"d1"}`, DisambiguateMsg{DocumentID: "d1"}, false},
		{"file", `{"document_id":"d1","file_key":"documents/d1.json","format":"corenlp"}`,
			DisambiguateMsg{DocumentID: "d1", FileKey: "documents/d1.json", Format: "corenlp"}, false},
		{"no id", `{"file_key":"x"}`, DisambiguateMsg{}, true},
		{"bad format", `{"document_id":"d1","format":"pdf"}`, DisambiguateMsg{}, true},
		{"not json", `nope`, DisambiguateMsg{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMessage([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeMessage_RequiresID(t *testing.T) {
	if _, err := EncodeMessage(DisambiguateMsg{}); err == nil {
		t.Fatal("expected error")
	}
	b, err := EncodeMessage(DisambiguateMsg{DocumentID: "d1"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"document_id":"d1"}` {
		t.Fatalf("encoded %s", b)
	}
}

func TestHandleProcessingError_RecordsCauseOnDLQ(t *testing.T) {
	ch := newFakeChannel()
	msg := amqp091.Delivery{Acknowledger: &fakeAcker{}}
	HandleProcessingError(ch, msg, DisambiguateQueue, util.Permanent(errors.New("bad format")))
	if len(ch.published) != 1 {
		t.Fatalf("published %d messages", len(ch.published))
	}
	if got := ch.published[0].msg.Headers["x-error"]; got != "bad format" {
		t.Fatalf("x-error = %v", got)
	}
}

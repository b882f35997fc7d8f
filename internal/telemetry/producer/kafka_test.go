package producer

import (
	"context"
	"testing"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
)

func TestNewKafkaProducer_Disabled(t *testing.T) {
	if p := NewKafkaProducer(nil, "topic"); p != nil {
		t.Error("no brokers should disable the producer")
	}
	if p := NewKafkaProducer([]string{"localhost:9092"}, ""); p != nil {
		t.Error("empty topic should disable the producer")
	}
	var p *KafkaProducer
	if err := p.Emit(context.Background(), domain.NewEvent(domain.EventCardMoved, "u1")); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}

func TestEncodeDecodeMessage(t *testing.T) {
	ev := domain.NewEvent(domain.EventCardMoved, "u1")
	ev.TeamID, ev.BoardID, ev.CardID = "t1", "b1", "c1"

	msg, err := encodeMessage(ev)
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}
	if string(msg.Key) != "b1" {
		t.Errorf("key = %q, want board id", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "card.moved" {
		t.Errorf("headers = %v", msg.Headers)
	}
	got, err := DecodeMessage(msg.Value)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if got.ID != ev.ID || got.Type != ev.Type || got.CardID != "c1" || !got.CreatedAt.Equal(ev.CreatedAt) {
		t.Errorf("decoded = %+v, want %+v", got, ev)
	}
	if _, err := DecodeMessage([]byte("{not json")); err == nil {
		t.Error("DecodeMessage should reject bad json")
	}
}

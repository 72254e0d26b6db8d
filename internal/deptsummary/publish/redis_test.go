package publish

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/yungbote/deptsummary/internal/deptsummary/config"
	"github.com/yungbote/deptsummary/internal/deptsummary/domain"
	"github.com/yungbote/deptsummary/internal/deptsummary/summary"
	"github.com/yungbote/deptsummary/internal/platform/logger"
)

func TestNewRedisRequiresAddr(t *testing.T) {
	if _, err := NewRedis(config.RedisConfig{}, logger.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewRedis(config.RedisConfig{Addr: "localhost:6379"}, nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

func TestNewRedisUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	if _, err := NewRedis(config.RedisConfig{Addr: addr}, logger.NewNop()); err == nil {
		t.Fatalf("expected ping error for closed port %s", addr)
	}
}

func TestMessageJSON(t *testing.T) {
	groups := summary.GroupByDepartment([]domain.User{
		{FirstName: "A", LastName: "B", Gender: "male", Age: 30, Hair: domain.Hair{Color: "Brown"},
			Address: domain.Address{PostalCode: "111"}, Company: domain.Company{Department: "Eng"}},
	})
	msg := Message{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:      "https://dummyjson.com/users",
		Users:       1,
		Departments: groups,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Message
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	eng, ok := back.Departments.Get("Eng")
	if !ok || eng.Male != 1 || eng.AgeRange.String() != "30-30" {
		t.Fatalf("unexpected departments: %s", raw)
	}
	if back.RunID != "run-1" || !back.GeneratedAt.Equal(msg.GeneratedAt) {
		t.Fatalf("unexpected envelope: %+v", back)
	}
}

func TestNilPublisher(t *testing.T) {
	var p *redisPublisher
	if err := p.Publish(context.Background(), Message{}); err == nil {
		t.Fatalf("expected error from nil publisher")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

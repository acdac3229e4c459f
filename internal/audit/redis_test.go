package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/adchub/hub/internal/config"
	"github.com/adchub/hub/internal/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisPluginAppendsToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	obs := NewObserver(NewRedisPlugin(client, "test:events", 0))
	u := newTestUser()

	obs.LoginSuccess(u)
	obs.Logout(u, "disconnected")

	entries, err := client.XRange(context.Background(), "test:events", "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("stream has %d entries, want 2", len(entries))
	}

	if got := entries[0].Values["event"]; got != "LoginOK" {
		t.Errorf("first event = %v, want LoginOK", got)
	}
	if got := entries[1].Values["sid"]; got != u.SID.String() {
		t.Errorf("sid = %v, want %s", got, u.SID)
	}

	var ev session.Event
	if err := json.Unmarshal([]byte(entries[1].Values["data"].(string)), &ev); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if ev.Name != "Logout" || ev.Detail != "disconnected" {
		t.Errorf("event = %+v", ev)
	}
}

func TestRedisPluginErrorIsReported(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := NewRedisPlugin(client, "test:events", 0)
	mr.Close()

	if err := p.OnEvent(session.NewEvent(session.EventLogout, newTestUser(), "kicked"), nil); err == nil {
		t.Error("expected error with the server gone")
	}
	p.Close()
}

func TestOpenRedisPlugin(t *testing.T) {
	mr := miniredis.RunT(t)

	sink, err := Open(config.AuditConfig{
		Sink:    config.SinkObserver,
		Plugins: []config.PluginConfig{{Name: "redis", Addr: mr.Addr()}},
	})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer sink.Close()

	sink.LoginError(newTestUser(), "nick taken")
	if !mr.Exists(defaultStream) {
		t.Errorf("stream %q not created", defaultStream)
	}
}

func TestOpenRedisPluginRequiresAddr(t *testing.T) {
	_, err := Open(config.AuditConfig{
		Sink:    config.SinkObserver,
		Plugins: []config.PluginConfig{{Name: "redis"}},
	})
	if err == nil {
		t.Error("expected error without addr")
	}
}

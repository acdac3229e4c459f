package status

import (
	"encoding/json"
	"testing"
)

func TestEveryCodeHasTexts(t *testing.T) {
	r, err := NewResolver(nil)
	if err != nil {
		t.Fatal(err)
	}
	for c := OK; c <= LoginRequired; c++ {
		if r.Message(c) == "" {
			t.Errorf("Message(%v) is empty", c)
		}
		if r.LogMessage(c) == "" {
			t.Errorf("LogMessage(%v) is empty", c)
		}
		back, ok := ParseCode(c.String())
		if !ok || back != c {
			t.Errorf("ParseCode(%q) = %v, %v; want %v", c.String(), back, ok, c)
		}
	}
}

func TestResolverOverrides(t *testing.T) {
	r, err := NewResolver(map[string]string{
		"nick_taken": "Pick another name",
	})
	if err != nil {
		t.Fatalf("NewResolver error: %v", err)
	}

	if got := r.Message(NickTaken); got != "Pick another name" {
		t.Errorf("Message(NickTaken) = %q, want override", got)
	}
	if got := r.LogMessage(NickTaken); got != "nick taken" {
		t.Errorf("LogMessage(NickTaken) = %q, want fixed log text", got)
	}
	if got := r.Message(HubFull); got != "Hub is full" {
		t.Errorf("Message(HubFull) = %q, want default", got)
	}
}

func TestResolverUnknownKey(t *testing.T) {
	if _, err := NewResolver(map[string]string{"nope": "x"}); err == nil {
		t.Error("NewResolver accepted unknown message key")
	}
}

func TestNilResolverUsesDefaults(t *testing.T) {
	var r *Resolver
	if got := r.Message(InvalidPassword); got != "Wrong password" {
		t.Errorf("nil Resolver Message = %q", got)
	}
}

func TestUnknownCode(t *testing.T) {
	r, _ := NewResolver(nil)
	if got := r.Message(Code(999)); got != "Unknown error" {
		t.Errorf("Message(999) = %q", got)
	}
	if got := Code(999).String(); got != "status(999)" {
		t.Errorf("String() = %q", got)
	}
}

func TestLevelMarshalJSON(t *testing.T) {
	data, err := json.Marshal(LevelFatal)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"fatal"` {
		t.Errorf("Marshal(LevelFatal) = %s", data)
	}
}

func TestCodeUnmarshalJSON(t *testing.T) {
	var c Code
	if err := json.Unmarshal([]byte(`"nick_taken"`), &c); err != nil {
		t.Fatal(err)
	}
	if c != NickTaken {
		t.Errorf("Unmarshal = %v, want nick_taken", c)
	}
	if err := json.Unmarshal([]byte(`"bogus"`), &c); err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestLevelUnmarshalJSON(t *testing.T) {
	var l Level
	if err := json.Unmarshal([]byte(`"recoverable"`), &l); err != nil {
		t.Fatal(err)
	}
	if l != LevelRecoverable {
		t.Errorf("Unmarshal = %v, want recoverable", l)
	}
}

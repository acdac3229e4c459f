package audit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/adchub/hub/internal/session"
)

func newTestUser() *session.User {
	u := session.NewUser(1, "10.0.0.1:4000", nil)
	u.SetIdentity("CID1", "alice", "client 1.0")
	u.SetCredentials(session.CredUser)
	return u
}

func TestLoggerLines(t *testing.T) {
	tests := []struct {
		name string
		emit func(l *Logger, u *session.User)
		want string
	}{
		{
			name: "login ok",
			emit: func(l *Logger, u *session.User) { l.LoginSuccess(u) },
			want: `LoginOK     AAAB/CID1 10.0.0.1:4000 "alice" (user) "client 1.0"`,
		},
		{
			name: "login error",
			emit: func(l *Logger, u *session.User) { l.LoginError(u, "nick taken") },
			want: `LoginError  AAAB/CID1 10.0.0.1:4000 "alice" (nick taken) "client 1.0"`,
		},
		{
			name: "update error",
			emit: func(l *Logger, u *session.User) { l.UpdateError(u, "nick invalid (bad chars)") },
			want: `UpdateError AAAB/CID1 10.0.0.1:4000 "alice" (nick invalid (bad chars)) "client 1.0"`,
		},
		{
			name: "nick change",
			emit: func(l *Logger, u *session.User) { l.NickChange(u, "alicia") },
			want: `NickChange  AAAB/CID1 10.0.0.1:4000 "alice" -> "alicia"`,
		},
		{
			name: "logout",
			emit: func(l *Logger, u *session.User) { l.Logout(u, "disconnected") },
			want: `Logout      AAAB/CID1 10.0.0.1:4000 "alice" (disconnected)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(&buf)
			tt.emit(l, newTestUser())

			out := buf.String()
			if strings.Count(out, "\n") != 1 {
				t.Errorf("expected exactly one line, got %q", out)
			}
			if !strings.HasSuffix(strings.TrimSuffix(out, "\n"), tt.want) {
				t.Errorf("line = %q, want suffix %q", out, tt.want)
			}
		})
	}
}

func TestLoggerFieldOrder(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf).Logout(newTestUser(), "kicked")

	line := buf.String()
	idx := []int{
		strings.Index(line, "AAAB"),
		strings.Index(line, "CID1"),
		strings.Index(line, "10.0.0.1:4000"),
		strings.Index(line, "alice"),
		strings.Index(line, "kicked"),
	}
	for i := 1; i < len(idx); i++ {
		if idx[i-1] < 0 || idx[i] <= idx[i-1] {
			t.Fatalf("fields out of order in %q: %v", line, idx)
		}
	}
}

func TestLoggerCloseWithoutFile(t *testing.T) {
	if err := NewLogger(&bytes.Buffer{}).Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

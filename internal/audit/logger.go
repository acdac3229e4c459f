package audit

import (
	"io"
	"log"

	"github.com/adchub/hub/internal/session"
)

// Logger writes one line per lifecycle event:
//
//	LoginOK     AAAB/CID 10.0.0.1:4000 "alice" (user) "client 1.0"
type Logger struct {
	log    *log.Logger
	closer io.Closer
}

func NewLogger(w io.Writer) *Logger {
	return &Logger{log: log.New(w, "", log.LstdFlags)}
}

func (l *Logger) LoginSuccess(u *session.User) {
	info := u.Info()
	l.log.Printf("LoginOK     %s/%s %s \"%s\" (%s) \"%s\"", info.SID, info.CID, info.Addr, info.Nick, info.Credentials, info.UserAgent)
}

func (l *Logger) LoginError(u *session.User, message string) {
	info := u.Info()
	l.log.Printf("LoginError  %s/%s %s \"%s\" (%s) \"%s\"", info.SID, info.CID, info.Addr, info.Nick, message, info.UserAgent)
}

func (l *Logger) UpdateError(u *session.User, message string) {
	info := u.Info()
	l.log.Printf("UpdateError %s/%s %s \"%s\" (%s) \"%s\"", info.SID, info.CID, info.Addr, info.Nick, message, info.UserAgent)
}

func (l *Logger) NickChange(u *session.User, nick string) {
	info := u.Info()
	l.log.Printf("NickChange  %s/%s %s \"%s\" -> \"%s\"", info.SID, info.CID, info.Addr, info.Nick, nick)
}

func (l *Logger) Logout(u *session.User, reason string) {
	info := u.Info()
	l.log.Printf("Logout      %s/%s %s \"%s\" (%s)", info.SID, info.CID, info.Addr, info.Nick, reason)
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

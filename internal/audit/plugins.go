package audit

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/adchub/hub/internal/session"
)

// JSONWriterPlugin writes each event as a JSON line.
type JSONWriterPlugin struct {
	writer io.Writer
	closer io.Closer
	mu     sync.Mutex
}

func NewJSONWriterPlugin(w io.Writer) *JSONWriterPlugin {
	return &JSONWriterPlugin{writer: w}
}

func (p *JSONWriterPlugin) Name() string { return "jsonlog" }

func (p *JSONWriterPlugin) OnEvent(ev session.Event, _ *session.User) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.writer.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

func (p *JSONWriterPlugin) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

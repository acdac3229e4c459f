package hub

import (
	"log"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time view of the hub counters and the hub process.
type Stats struct {
	Users          int     `json:"users"`
	PeakUsers      int     `json:"peakUsers"`
	Connections    int     `json:"connections"`
	Logins         uint64  `json:"logins"`
	LoginFailures  uint64  `json:"loginFailures"`
	UpdateFailures uint64  `json:"updateFailures"`
	Logouts        uint64  `json:"logouts"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`

	AllTimeLogins    uint64 `json:"allTimeLogins"`
	AllTimePeakUsers int    `json:"allTimePeakUsers"`

	ProcessRSS uint64  `json:"processRss,omitempty"`
	ProcessCPU float64 `json:"processCpu,omitempty"`
}

func (h *Hub) Stats() Stats {
	s := Stats{
		Users:          h.registry.Count(),
		PeakUsers:      h.registry.Peak(),
		Connections:    h.Connections(),
		Logins:         h.logins.Load(),
		LoginFailures:  h.loginFailures.Load(),
		UpdateFailures: h.updateFailures.Load(),
		Logouts:        h.logouts.Load(),
		UptimeSeconds:  time.Since(h.started).Seconds(),
	}
	all := h.allTime()
	s.AllTimeLogins = all.Logins
	s.AllTimePeakUsers = all.PeakUsers

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Printf("stats: process info unavailable: %v", err)
		return s
	}
	if mem, err := p.MemoryInfo(); err == nil {
		s.ProcessRSS = mem.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		s.ProcessCPU = cpu
	}
	return s
}

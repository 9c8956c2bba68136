package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemStatus is the response of GET /api/v1/status.
type SystemStatus struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	WebSocket     WSMetrics         `json:"websocket"`
	Registries    RegistryMetrics   `json:"registries"`
	Providers     map[string]int    `json:"providers"`
	Components    map[string]string `json:"components,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// RegistryMetrics counts the elements of each registry.
type RegistryMetrics struct {
	Items        int `json:"items"`
	Things       int `json:"things"`
	ChannelLinks int `json:"item_channel_links"`
	ThingLinks   int `json:"item_thing_links"`
	ModuleTypes  int `json:"module_types"`
	Rules        int `json:"rules"`
}

// handleStatus returns runtime and registry statistics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := SystemStatus{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Registries: RegistryMetrics{
			Items:        len(s.items.GetAll()),
			Things:       len(s.things.GetAll()),
			ChannelLinks: len(s.links.GetAll()),
			ThingLinks:   len(s.thingLinks.GetAll()),
			ModuleTypes:  len(s.types.GetAll()),
			Rules:        len(s.rules.GetAll()),
		},
		Providers: map[string]int{
			s.items.Name():      s.items.Providers(),
			s.things.Name():     s.things.Providers(),
			s.links.Name():      s.links.Providers(),
			s.thingLinks.Name(): s.thingLinks.Providers(),
			s.types.Name():      s.types.Providers(),
			s.rules.Name():      s.rules.Providers(),
		},
	}

	if results := s.runChecks(r); len(results) > 0 {
		status.Components = results
	}

	writeJSON(w, http.StatusOK, status)
}

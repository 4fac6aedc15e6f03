package domain

import "fmt"

// HardwareStatus is one reading pushed by the hardware-status endpoint.
type HardwareStatus struct {
	Cpu            float64 `json:"cpu"`
	Ram            float64 `json:"ram"`
	Temperature    float64 `json:"temperature"`
	Storage        float64 `json:"storage"`
	StartupTime    float64 `json:"startup_time"`
	UpTime         float64 `json:"uptime"`
	BatteryLevel   float64 `json:"battery"`
	NetworkTraffic float64 `json:"network_traffic"`
	InternetStatus float64 `json:"internet_status"`
}

// Summary renders the reading on a single console line.
func (h HardwareStatus) Summary() string {
	return fmt.Sprintf("cpu=%.1f%% ram=%.1f%% temp=%.1fC storage=%.1f%% battery=%.1f%% uptime=%.0fs",
		h.Cpu, h.Ram, h.Temperature, h.Storage, h.BatteryLevel, h.UpTime)
}

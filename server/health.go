package server

import (
	"math"
	"runtime"
	"time"
)

var start = time.Now()

// MB bytes per megabyte
const MB float64 = 1.0 * 1024 * 1024

// HealthStats process runtime stats
type HealthStats struct {
	Uptime          int64   `json:"uptime"`
	Busy            bool    `json:"busy"`
	AllocatedMemory float64 `json:"allocated_memory"`
	Goroutines      int     `json:"goroutines"`
	GCCycles        uint32  `json:"gc_cycles"`
	NumberOfCPUs    int     `json:"number_of_cpus"`
	HeapAllocated   float64 `json:"heap_allocated"`
}

// GetHealthStats returns current HealthStats
func GetHealthStats() *HealthStats {
	mem := &runtime.MemStats{}
	runtime.ReadMemStats(mem)

	return &HealthStats{
		Uptime:          GetUptime(),
		AllocatedMemory: toMegaBytes(mem.Alloc),
		Goroutines:      runtime.NumGoroutine(),
		NumberOfCPUs:    runtime.NumCPU(),
		GCCycles:        mem.NumGC,
		HeapAllocated:   toMegaBytes(mem.HeapAlloc),
	}
}

// GetUptime seconds since process start
func GetUptime() int64 {
	return time.Now().Unix() - start.Unix()
}

func toMegaBytes(bytes uint64) float64 {
	return math.Round(float64(bytes)/MB*100) / 100
}

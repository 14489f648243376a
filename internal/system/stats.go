package system

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats is a snapshot of host and process resources for the render report.
type HostStats struct {
	LogicalCPUs int
	TotalMemory uint64
	AvailMemory uint64
	UsedPercent float64
	ProcessRSS  uint64
	Goroutines  int
	GoHeapAlloc uint64
}

// CollectHostStats never fails outright: fields the platform cannot report
// stay zero.
func CollectHostStats() HostStats {
	st := HostStats{Goroutines: runtime.NumGoroutine()}

	if n, err := cpu.Counts(true); err == nil {
		st.LogicalCPUs = n
	} else {
		st.LogicalCPUs = runtime.NumCPU()
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		st.TotalMemory = vm.Total
		st.AvailMemory = vm.Available
		st.UsedPercent = vm.UsedPercent
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			st.ProcessRSS = mi.RSS
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.GoHeapAlloc = ms.HeapAlloc
	return st
}

func (s HostStats) String() string {
	return fmt.Sprintf("CPUs: %d | RAM: %s free of %s (%.1f%% used) | RSS: %s | Heap: %s | Goroutines: %d",
		s.LogicalCPUs, FormatBytes(s.AvailMemory), FormatBytes(s.TotalMemory), s.UsedPercent,
		FormatBytes(s.ProcessRSS), FormatBytes(s.GoHeapAlloc), s.Goroutines)
}

// DefaultWorkers leaves one core for the encoder subprocess.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	if n > 1 {
		n--
	}
	return n
}

func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

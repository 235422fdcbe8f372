// Package sysmon provides system-wide CPU and memory usage sampling.
package sysmon

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
}

// Sample collects a single system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Returns zero values on error.
func Sample() Stats {
	var s Stats
	cpuPcts, err := cpu.Percent(0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemory()
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}

// Usage summarises resource usage across a window, such as one pass.
type Usage struct {
	Stats
	Cores int
}

// Window measures average CPU utilisation between Begin and End. A
// sequential pass keeps roughly one core busy; a parallel one keeps several.
type Window struct{}

// Begin resets the CPU baseline so that End reports the window's average.
func Begin() Window {
	_, _ = cpu.Percent(0, false)
	return Window{}
}

// End samples usage since Begin.
func (Window) End() Usage {
	cores, err := cpu.Counts(true)
	if err != nil {
		cores = 0
	}
	return Usage{Stats: Sample(), Cores: cores}
}

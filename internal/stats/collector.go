// Package stats samples process resource usage while a workload runs and
// renders a plain-text report of it.
package stats

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

type Sample struct {
	Elapsed      time.Duration `json:"elapsed"`
	HeapAlloc    uint64        `json:"heap_alloc"`
	HeapSys      uint64        `json:"heap_sys"`
	Sys          uint64        `json:"sys"`
	NumGC        uint32        `json:"num_gc"`
	RSS          uint64        `json:"rss"`
	CPUPercent   float64       `json:"cpu_percent"`
	NumGoroutine int           `json:"num_goroutine"`
}

// Phase is a named, timed part of a workload, e.g. building or querying.
type Phase struct {
	Name       string        `json:"name"`
	Duration   time.Duration `json:"duration"`
	Operations int           `json:"operations"`
}

func (p Phase) PerOperation() time.Duration {
	if p.Operations == 0 {
		return 0
	}
	return p.Duration / time.Duration(p.Operations)
}

type Report struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Phases  []Phase   `json:"phases"`
	Samples []Sample  `json:"samples"`
}

func (r *Report) Elapsed() time.Duration {
	return r.End.Sub(r.Start)
}

func (r *Report) Peak() Sample {
	var peak Sample
	for _, s := range r.Samples {
		peak.HeapAlloc = max(peak.HeapAlloc, s.HeapAlloc)
		peak.HeapSys = max(peak.HeapSys, s.HeapSys)
		peak.Sys = max(peak.Sys, s.Sys)
		peak.NumGC = max(peak.NumGC, s.NumGC)
		peak.RSS = max(peak.RSS, s.RSS)
		peak.CPUPercent = max(peak.CPUPercent, s.CPUPercent)
		peak.NumGoroutine = max(peak.NumGoroutine, s.NumGoroutine)
	}
	return peak
}

// Collector samples runtime and process stats at a fixed interval between
// Start and Stop.
type Collector struct {
	interval time.Duration
	proc     *process.Process

	mu     sync.Mutex
	report Report
	phase  *Phase
	began  time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCollector(interval time.Duration) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}

	return &Collector{
		interval: interval,
		proc:     proc,
		done:     make(chan struct{}),
	}, nil
}

func (c *Collector) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.report.Start = time.Now()
	go c.collect(ctx)
}

func (c *Collector) collect(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-ctx.Done():
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Sample{
		Elapsed:      time.Since(c.report.Start),
		HeapAlloc:    mem.HeapAlloc,
		HeapSys:      mem.HeapSys,
		Sys:          mem.Sys,
		NumGC:        mem.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}
	if info, err := c.proc.MemoryInfo(); err == nil && info != nil {
		s.RSS = info.RSS
	}
	if cpu, err := c.proc.CPUPercent(); err == nil {
		s.CPUPercent = cpu
	}

	c.mu.Lock()
	c.report.Samples = append(c.report.Samples, s)
	c.mu.Unlock()
}

// BeginPhase ends the running phase, if any, and starts timing a new one.
func (c *Collector) BeginPhase(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endPhaseLocked()
	c.phase = &Phase{Name: name}
	c.began = time.Now()
}

// EndPhase stops timing the running phase, recording ops operations for it.
func (c *Collector) EndPhase(ops int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != nil {
		c.phase.Operations = ops
	}
	c.endPhaseLocked()
}

func (c *Collector) endPhaseLocked() {
	if c.phase == nil {
		return
	}
	c.phase.Duration = time.Since(c.began)
	c.report.Phases = append(c.report.Phases, *c.phase)
	c.phase = nil
}

// Stop ends sampling and returns everything collected.
func (c *Collector) Stop() Report {
	c.cancel()
	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endPhaseLocked()
	c.report.End = time.Now()
	return c.report
}

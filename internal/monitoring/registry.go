package monitoring

import (
	"sort"
	"sync"
	"time"
)

// DefaultCapacity is the number of module/operation keys kept in memory.
const DefaultCapacity = 10000

// evictFraction of the keys, oldest first, is dropped when a new key would
// exceed the capacity.
const evictFraction = 0.2

// Recorder receives one sample per completed operation.
type Recorder interface {
	Record(module, operation string, d time.Duration, success bool)
}

type OperationMetric struct {
	Module          string    `json:"module"`
	Operation       string    `json:"operation"`
	Count           int64     `json:"count"`
	TotalDuration   float64   `json:"total_duration_ms"`
	AverageDuration float64   `json:"average_duration_ms"`
	Errors          int64     `json:"errors"`
	LastExecuted    time.Time `json:"last_executed"`
}

type ModuleStats struct {
	Module          string                     `json:"module"`
	TotalOperations int64                      `json:"total_operations"`
	TotalDuration   float64                    `json:"total_duration_ms"`
	AverageDuration float64                    `json:"average_duration_ms"`
	ErrorRate       float64                    `json:"error_rate"`
	Operations      map[string]OperationMetric `json:"operations"`
}

type Summary struct {
	TotalOperations int64   `json:"total_operations"`
	TotalModules    int     `json:"total_modules"`
	AverageDuration float64 `json:"average_duration_ms"`
	TotalErrors     int64   `json:"total_errors"`
	ErrorRate       float64 `json:"error_rate"`
}

type entry struct {
	module, operation string
	count, errors     int64
	total             time.Duration
	last              time.Time
}

// Registry aggregates operation samples in memory. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	capacity int
	now      func() time.Time
}

func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		entries:  make(map[string]*entry),
		capacity: capacity,
		now:      time.Now,
	}
}

func (r *Registry) Record(module, operation string, d time.Duration, success bool) {
	key := module + ":" + operation

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		if len(r.entries) >= r.capacity {
			r.evictLocked()
		}
		e = &entry{module: module, operation: operation}
		r.entries[key] = e
	}
	e.count++
	e.total += d
	e.last = r.now()
	if !success {
		e.errors++
	}
}

func (r *Registry) evictLocked() {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return r.entries[keys[i]].last.Before(r.entries[keys[j]].last)
	})

	n := int(float64(len(keys)) * evictFraction)
	if n < 1 {
		n = 1
	}
	for _, k := range keys[:n] {
		delete(r.entries, k)
	}
}

// Operation returns the metric for one key, or false when nothing was recorded.
func (r *Registry) Operation(module, operation string) (OperationMetric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[module+":"+operation]
	if !ok {
		return OperationMetric{}, false
	}
	return e.metric(), true
}

// Module aggregates every operation recorded for module.
func (r *Registry) Module(module string) (ModuleStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.moduleLocked(module)
}

func (r *Registry) moduleLocked(module string) (ModuleStats, bool) {
	stats := ModuleStats{Module: module, Operations: make(map[string]OperationMetric)}
	var total time.Duration
	var errs int64
	for _, e := range r.entries {
		if e.module != module {
			continue
		}
		stats.Operations[e.operation] = e.metric()
		stats.TotalOperations += e.count
		total += e.total
		errs += e.errors
	}
	if stats.TotalOperations == 0 {
		return ModuleStats{}, false
	}

	stats.TotalDuration = ms(total)
	stats.AverageDuration = ms(total) / float64(stats.TotalOperations)
	stats.ErrorRate = float64(errs) / float64(stats.TotalOperations)
	return stats, true
}

// Modules returns stats for every module, sorted by name.
func (r *Registry) Modules() []ModuleStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[string]struct{})
	for _, e := range r.entries {
		names[e.module] = struct{}{}
	}

	out := make([]ModuleStats, 0, len(names))
	for name := range names {
		if s, ok := r.moduleLocked(name); ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

func (r *Registry) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		s     Summary
		total time.Duration
	)
	modules := make(map[string]struct{})
	for _, e := range r.entries {
		s.TotalOperations += e.count
		s.TotalErrors += e.errors
		total += e.total
		modules[e.module] = struct{}{}
	}
	s.TotalModules = len(modules)
	if s.TotalOperations > 0 {
		s.AverageDuration = ms(total) / float64(s.TotalOperations)
		s.ErrorRate = float64(s.TotalErrors) / float64(s.TotalOperations)
	}
	return s
}

func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*entry)
}

// Len is the number of tracked keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (e *entry) metric() OperationMetric {
	return OperationMetric{
		Module:          e.module,
		Operation:       e.operation,
		Count:           e.count,
		TotalDuration:   ms(e.total),
		AverageDuration: ms(e.total) / float64(e.count),
		Errors:          e.errors,
		LastExecuted:    e.last,
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

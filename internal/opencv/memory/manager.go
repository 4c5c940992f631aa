package memory

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"cv2x/internal/logger"
	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// DefaultLimit is the scratch budget used when no limit is configured.
const DefaultLimit int64 = 512 * 1024 * 1024

// Manager hands out zeroed scratch masks under a byte budget and reports
// masks that outlive a batch.
type Manager struct {
	mu           sync.RWMutex
	logger       logger.Logger
	maxMemory    int64
	usedMemory   int64
	allocCount   int64
	deallocCount int64
	activeMats   map[uint64]*MatInfo
	interval     time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
}

type MatInfo struct {
	ID        uint64
	Tag       string
	Size      int64
	Timestamp time.Time
}

func NewManager(log logger.Logger) *Manager {
	return NewManagerWithLimit(log, DefaultLimit, 30*time.Second)
}

func NewManagerWithLimit(log logger.Logger, limit int64, interval time.Duration) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	manager := &Manager{
		logger:     log,
		maxMemory:  limit,
		activeMats: make(map[uint64]*MatInfo),
		interval:   interval,
		ctx:        ctx,
		cancel:     cancel,
	}

	go manager.monitorMemory()
	return manager
}

func (m *Manager) GetMat(rows, cols int, matType gocv.MatType, tag string) (*safe.Mat, error) {
	if err := m.reserve(int64(rows * cols * getMatTypeSize(matType))); err != nil {
		return nil, err
	}

	return safe.NewMatWithTracker(rows, cols, matType, m, tag)
}

// Adopt places a copy of a mask created elsewhere under the manager's accounting.
func (m *Manager) Adopt(src *safe.Mat, tag string) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "Adopt"); err != nil {
		return nil, err
	}

	if err := m.reserve(int64(src.Rows() * src.Cols() * getMatTypeSize(src.Type()))); err != nil {
		return nil, err
	}

	return safe.NewMatFromMatWithTracker(src.GetMat(), m, tag)
}

func (m *Manager) reserve(size int64) error {
	m.mu.RLock()
	used := m.usedMemory
	m.mu.RUnlock()

	if used+size > m.maxMemory {
		runtime.GC()
		return fmt.Errorf("memory limit exceeded: would use %d bytes, limit is %d",
			used+size, m.maxMemory)
	}
	return nil
}

func (m *Manager) TrackAllocation(id uint64, size int64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usedMemory += size
	m.allocCount++
	m.activeMats[id] = &MatInfo{
		ID:        id,
		Tag:       tag,
		Size:      size,
		Timestamp: time.Now(),
	}
}

func (m *Manager) TrackDeallocation(id uint64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deallocCount++
	if info, exists := m.activeMats[id]; exists {
		delete(m.activeMats, id)
		m.usedMemory -= info.Size
	}
}

func (m *Manager) ReleaseMat(mat *safe.Mat) {
	if mat == nil {
		return
	}
	mat.Close()
}

func (m *Manager) GetUsedMemory() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usedMemory
}

func (m *Manager) GetStats() (allocCount, deallocCount int64, usedMemory int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allocCount, m.deallocCount, m.usedMemory
}

func (m *Manager) GetActiveMatCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.activeMats)
}

func (m *Manager) monitorMemory() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.performMonitoringCheck()
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) performMonitoringCheck() {
	alloc, dealloc, used := m.GetStats()
	activeCount := m.GetActiveMatCount()

	m.logger.Debug("MemoryManager", "memory statistics", map[string]interface{}{
		"allocations":   alloc,
		"deallocations": dealloc,
		"used_bytes":    used,
		"active_mats":   activeCount,
	})

	if activeCount > 50 {
		m.logOldestMats(5)
	}

	if used > m.maxMemory*8/10 {
		runtime.GC()
	}
}

func (m *Manager) logOldestMats(count int) {
	m.mu.RLock()
	infos := make([]*MatInfo, 0, len(m.activeMats))
	for _, info := range m.activeMats {
		infos = append(infos, info)
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.Before(infos[j].Timestamp)
	})

	if len(infos) > count {
		infos = infos[:count]
	}

	now := time.Now()
	for _, info := range infos {
		m.logger.Warning("MemoryManager", "long-lived Mat detected", map[string]interface{}{
			"tag":  info.Tag,
			"size": info.Size,
			"age":  now.Sub(info.Timestamp).String(),
		})
	}
}

func (m *Manager) Shutdown() {
	m.cancel()
	m.Cleanup()
}

// Cleanup forgets every outstanding allocation. The Mats themselves are left
// to their owners and finalizers.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	matCount := len(m.activeMats)
	for id, info := range m.activeMats {
		m.logger.Warning("MemoryManager", "unreleased Mat at cleanup", map[string]interface{}{
			"tag":  info.Tag,
			"size": info.Size,
		})
		delete(m.activeMats, id)
	}

	m.logger.Info("MemoryManager", "cleanup completed", map[string]interface{}{
		"mats_cleaned": matCount,
	})

	m.usedMemory = 0
}

func getMatTypeSize(matType gocv.MatType) int {
	switch matType {
	case gocv.MatTypeCV8UC1:
		return 1
	case gocv.MatTypeCV8UC3:
		return 3
	case gocv.MatTypeCV8UC4:
		return 4
	case gocv.MatTypeCV16UC1:
		return 2
	case gocv.MatTypeCV32SC1, gocv.MatTypeCV32FC1:
		return 4
	case gocv.MatTypeCV32FC3:
		return 12
	default:
		return 1
	}
}

package metrics

import (
	"sync"
	"time"
)

// Metrics mengumpulkan counter runtime sederhana untuk proses pembangkitan.
// Semua metode aman dipanggil dari banyak goroutine.
type Metrics struct {
	mutex           sync.RWMutex
	startTime       time.Time
	blocksGenerated uint64
	forksCreated    uint64
	txAttached      uint64
	chainHeight     uint64
}

var (
	instance *Metrics
	once     sync.Once
)

// GetMetrics mengembalikan singleton metrics global.
func GetMetrics() *Metrics {
	once.Do(func() {
		instance = &Metrics{startTime: time.Now()}
	})
	return instance
}

func (m *Metrics) IncrementBlockCount() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.blocksGenerated++
}

func (m *Metrics) IncrementForkCount() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.forksCreated++
}

func (m *Metrics) AddTransactionsAttached(n int) {
	if n <= 0 {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.txAttached += uint64(n)
}

func (m *Metrics) SetChainHeight(height uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.chainHeight = height
}

func (m *Metrics) BlockCount() uint64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.blocksGenerated
}

// ToMap mengembalikan snapshot semua metrics, misalnya untuk ringkasan CLI.
func (m *Metrics) ToMap() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return map[string]interface{}{
		"blocks_generated":      m.blocksGenerated,
		"forks_created":         m.forksCreated,
		"transactions_attached": m.txAttached,
		"chain_height":          m.chainHeight,
		"uptime_seconds":        time.Since(m.startTime).Seconds(),
	}
}

// Reset mengosongkan semua counter. Dipakai oleh test agar tidak saling bocor.
func (m *Metrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.blocksGenerated = 0
	m.forksCreated = 0
	m.txAttached = 0
	m.chainHeight = 0
	m.startTime = time.Now()
}

// Package config manages the pipeline's hot-reloadable configuration.
// Grounded on the teacher's internal/config.HFTConfigManager: a viper
// instance backed by a config file plus environment variables, an
// fsnotify watcher that debounces rapid file changes before reloading, an
// atomic.Value snapshot so readers never see a partially-updated config,
// and a callback list notified on every successful reload. Scoped down to
// the stage-level settings the pipeline actually has (no database,
// WebSocket, JWT, or circuit-breaker sections, none of which apply to a
// four-stage in-process pipeline).
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/tradsys-hft/pipeline/internal/core/types"
	pipelineerrors "github.com/tradsys-hft/pipeline/pkg/errors"
)

// StageConfig holds every stage's tunables in one reloadable document.
type StageConfig struct {
	Symbol uint32 `mapstructure:"symbol"`

	MarketData struct {
		CPUID           int    `mapstructure:"cpu_id"`
		MaxTicks        uint64 `mapstructure:"max_ticks"`
		BookUpdateEvery uint64 `mapstructure:"book_update_every"`
		TicksPerSecond  int    `mapstructure:"ticks_per_second"`
	} `mapstructure:"market_data"`

	Strategy struct {
		CPUID                int     `mapstructure:"cpu_id"`
		SpreadThresholdPrice float64 `mapstructure:"spread_threshold_price"`
	} `mapstructure:"strategy"`

	Risk struct {
		CPUID              int     `mapstructure:"cpu_id"`
		MaxPosition        float64 `mapstructure:"max_position"`
		MaxOrdersPerSecond uint64  `mapstructure:"max_orders_per_second"`
	} `mapstructure:"risk"`

	Gateway struct {
		CPUID int `mapstructure:"cpu_id"`
	} `mapstructure:"gateway"`

	QueueCapacity int `mapstructure:"queue_capacity"`
}

// SpreadThreshold converts Strategy.SpreadThresholdPrice into a fixed-point
// Price.
func (c *StageConfig) SpreadThreshold() types.Price {
	return types.PriceFromFloat64(c.Strategy.SpreadThresholdPrice)
}

// MaxPosition converts Risk.MaxPosition into a fixed-point Quantity.
func (c *StageConfig) MaxPosition() types.Quantity {
	return types.QuantityFromFloat64(c.Risk.MaxPosition)
}

// Manager loads StageConfig from a file, watches it for changes, and
// notifies registered callbacks on every successful reload. Grounded on
// HFTConfigManager.
type Manager struct {
	viper      *viper.Viper
	configPath string

	current atomic.Value // *StageConfig

	watcher    *fsnotify.Watcher
	reloadChan chan struct{}

	callbacks []func(*StageConfig)
	cbLock    sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager loads configPath (if present; defaults apply otherwise) and
// starts watching it for changes.
func NewManager(configPath string) (*Manager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		viper:      viper.New(),
		configPath: configPath,
		watcher:    watcher,
		reloadChan: make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	m.viper.SetConfigFile(configPath)
	m.viper.SetEnvPrefix("PIPELINE")
	m.viper.AutomaticEnv()
	m.setDefaults()

	if err := m.load(); err != nil {
		cancel()
		watcher.Close()
		return nil, err
	}

	if err := m.startWatcher(); err != nil {
		cancel()
		watcher.Close()
		return nil, err
	}

	return m, nil
}

func (m *Manager) setDefaults() {
	m.viper.SetDefault("symbol", 1)

	m.viper.SetDefault("market_data.cpu_id", 0)
	m.viper.SetDefault("market_data.max_ticks", 0)
	m.viper.SetDefault("market_data.book_update_every", 10)
	m.viper.SetDefault("market_data.ticks_per_second", 0)

	m.viper.SetDefault("strategy.cpu_id", 1)
	m.viper.SetDefault("strategy.spread_threshold_price", 0.5)

	m.viper.SetDefault("risk.cpu_id", 2)
	m.viper.SetDefault("risk.max_position", 1000.0)
	m.viper.SetDefault("risk.max_orders_per_second", 100)

	m.viper.SetDefault("gateway.cpu_id", 3)

	m.viper.SetDefault("queue_capacity", 4096)
}

func (m *Manager) load() error {
	if _, err := os.Stat(m.configPath); err == nil {
		if err := m.viper.ReadInConfig(); err != nil {
			return pipelineerrors.Wrap(err, pipelineerrors.ErrConfigurationError, "failed to read config file")
		}
	}

	cfg := &StageConfig{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return pipelineerrors.Wrap(err, pipelineerrors.ErrConfigurationError, "failed to unmarshal config")
	}

	m.current.Store(cfg)
	m.notifyCallbacks(cfg)
	return nil
}

func (m *Manager) startWatcher() error {
	dir := filepath.Dir(m.configPath)
	if err := m.watcher.Add(dir); err != nil {
		return fmt.Errorf("config: failed to watch config directory: %w", err)
	}

	m.wg.Add(1)
	go m.watchLoop()
	return nil
}

func (m *Manager) watchLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Name == m.configPath && (event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) {
				select {
				case m.reloadChan <- struct{}{}:
				default:
				}
			}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			// Best-effort: a watcher error does not invalidate the current
			// snapshot, so there is nothing to recover beyond waiting for
			// the next event.
		case <-m.reloadChan:
			time.Sleep(100 * time.Millisecond)
			_ = m.load()
		}
	}
}

func (m *Manager) notifyCallbacks(cfg *StageConfig) {
	m.cbLock.RLock()
	defer m.cbLock.RUnlock()
	for _, cb := range m.callbacks {
		go cb(cfg)
	}
}

// Current returns the most recently loaded configuration snapshot.
func (m *Manager) Current() *StageConfig {
	return m.current.Load().(*StageConfig)
}

// OnReload registers a callback invoked after every successful reload.
func (m *Manager) OnReload(cb func(*StageConfig)) {
	m.cbLock.Lock()
	defer m.cbLock.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Close stops the watcher goroutine and releases the underlying fsnotify
// handle.
func (m *Manager) Close() error {
	m.cancel()
	m.wg.Wait()
	return m.watcher.Close()
}

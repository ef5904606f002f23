package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
)

// ChangeCallback is invoked after the file was reloaded and validated.
type ChangeCallback func(oldConfig, newConfig *Config)

// Watcher reloads the config file when it changes on disk. Only settings
// that are safe to change while running are expected to be honoured by
// callbacks (log level, console printing); the rest take effect on restart.
type Watcher struct {
	path     string
	logger   customlog.Logger
	debounce time.Duration

	configMu sync.RWMutex
	config   *Config

	callbacksMu sync.RWMutex
	callbacks   []ChangeCallback

	fsWatcher *fsnotify.Watcher
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher for path seeded with the already loaded cfg.
func NewWatcher(path string, cfg *Config, logger customlog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file system watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:      filepath.Clean(path),
		logger:    logger,
		debounce:  500 * time.Millisecond,
		config:    cfg,
		fsWatcher: fsWatcher,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start watches the directory holding the file, so editors that replace the
// file by rename are still seen.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	w.wg.Add(1)
	go w.watchLoop()

	w.logger.Infof("Watching %s for changes", w.path)
	return nil
}

// Stop ends the watch loop and releases the watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

// Config returns the most recently loaded configuration.
func (w *Watcher) Config() *Config {
	w.configMu.RLock()
	defer w.configMu.RUnlock()
	return w.config
}

// OnChange registers a callback for successful reloads.
func (w *Watcher) OnChange(callback ChangeCallback) {
	w.callbacksMu.Lock()
	defer w.callbacksMu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Reload reads the file now. An invalid file keeps the previous config.
func (w *Watcher) Reload() error {
	newConfig, err := LoadConfig(w.path)
	if err != nil {
		return err
	}
	if err := ApplyEnv(newConfig); err != nil {
		return err
	}
	if err := newConfig.Validate(); err != nil {
		return err
	}

	w.configMu.Lock()
	oldConfig := w.config
	w.config = newConfig
	w.configMu.Unlock()

	w.callbacksMu.RLock()
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.callbacksMu.RUnlock()

	for _, cb := range callbacks {
		cb(oldConfig, newConfig)
	}
	return nil
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	var debounceTimer *time.Timer

	for {
		select {
		case <-w.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				if err := w.Reload(); err != nil {
					w.logger.Warnf("Config reload failed, keeping previous settings: %v", err)
					return
				}
				w.logger.Infof("Reloaded configuration from %s", w.path)
			})

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("Config watcher error: %v", err)
		}
	}
}

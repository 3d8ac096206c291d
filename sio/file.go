package sio

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long FileCouplings wait for a burst of
// writes to settle before reloading.
var DefaultDebounce = 100 * time.Millisecond

// FileCouplings load a catalog file and, if Watch is set, reload it
// when it is written, created, or renamed into place.
//
// The directory is watched rather than the file so that editors and
// deploy tools that replace the file still trigger a reload.
type FileCouplings struct {
	Filename string
	Watch    bool
	Debounce time.Duration
	Holder   *Holder
	Logger   *zap.Logger

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewFileCouplings(filename string, watch bool, h *Holder, logger *zap.Logger) *FileCouplings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCouplings{
		Filename: filename,
		Watch:    watch,
		Debounce: DefaultDebounce,
		Holder:   h,
		Logger:   logger,
	}
}

// Reload reads the file and gives the Holder the new catalog.  On
// error the Holder keeps what it had.
func (c *FileCouplings) Reload() error {
	cat, err := ReadCatalog(c.Filename)
	if err != nil {
		return err
	}
	c.Holder.Set(cat)
	return nil
}

// Start reads the file, which must succeed, and then watches it if
// Watch is set.
func (c *FileCouplings) Start(ctx context.Context) error {
	if err := c.Reload(); err != nil {
		return err
	}
	if !c.Watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err = watcher.Add(filepath.Dir(c.Filename)); err != nil {
		watcher.Close()
		return err
	}
	c.watcher = watcher
	c.Logger.Info("watching catalog", zap.String("filename", c.Filename))

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
	return nil
}

func (c *FileCouplings) run(ctx context.Context) {
	var (
		base    = filepath.Base(c.Filename)
		settle  *time.Timer
		settled <-chan time.Time
	)
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			c.Logger.Debug("catalog file event",
				zap.String("filename", event.Name),
				zap.String("op", event.Op.String()))
			if settle == nil {
				settle = time.NewTimer(c.Debounce)
			} else {
				if !settle.Stop() {
					select {
					case <-settle.C:
					default:
					}
				}
				settle.Reset(c.Debounce)
			}
			settled = settle.C

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.Logger.Warn("catalog watch error",
				zap.String("filename", c.Filename),
				zap.Error(err))

		case <-settled:
			settled = nil
			if err := c.Reload(); err != nil {
				c.Logger.Warn("catalog reload failed",
					zap.String("filename", c.Filename),
					zap.Error(err))
				continue
			}
			c.Logger.Info("catalog reloaded", zap.String("filename", c.Filename))
		}
	}
}

// Stop stops watching and waits for the watcher to exit.
func (c *FileCouplings) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

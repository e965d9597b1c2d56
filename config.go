package modelkit

import (
	"sync"

	"github.com/burugo/modelkit/drivers/memory"
	"github.com/burugo/modelkit/logger"
	"github.com/burugo/modelkit/metrics"
)

// --- Global Configuration ---

var (
	globalFactory  BackendFactory   = MemoryBackendFactory
	globalLogger   logger.Interface = logger.Default
	globalObserver metrics.Observer = metrics.Nop{}
	configMutex    sync.RWMutex
)

// Options holds the package-wide collaborators. Nil fields leave the current value in place.
type Options struct {
	// Backend creates the backend of every model extended afterwards without an explicit one.
	Backend BackendFactory
	// Logger receives operation and backend traces.
	Logger logger.Interface
	// Observer receives one observation per model operation.
	Observer metrics.Observer
}

// MemoryBackendFactory gives every model its own in-memory backend. It is the default.
func MemoryBackendFactory(string) (Backend, error) {
	return memory.New(), nil
}

// Configure replaces the package-wide collaborators. Models that already exist keep their
// backend; logger and observer changes apply to all models immediately.
func Configure(opts Options) {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Backend != nil {
		globalFactory = opts.Backend
	}
	if opts.Logger != nil {
		globalLogger = opts.Logger
	}
	if opts.Observer != nil {
		globalObserver = opts.Observer
	}
}

// SetLogger replaces the package-wide logger.
func SetLogger(l logger.Interface) {
	Configure(Options{Logger: l})
}

// Logger returns the package-wide logger.
func Logger() logger.Interface {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalLogger
}

func currentFactory() BackendFactory {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalFactory
}

func currentObserver() metrics.Observer {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalObserver
}

package template

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/dago-node-render/internal/repeat"
	"github.com/aymerick/raymond"
	"go.uber.org/zap"
)

// contextKey is the private data frame entry carrying the render context.
const contextKey = "_context"

// Engine renders Handlebars templates
type Engine struct {
	cache   map[string]*raymond.Template
	mu      sync.RWMutex
	helpers map[string]interface{}
	repeat  *repeat.Helper
	logger  *zap.Logger
}

// Option configures an Engine
type Option func(*engineOptions)

type engineOptions struct {
	logger   *zap.Logger
	maxCount uint64
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithMaxCount limits the count accepted by the repeat helper (0 = unlimited)
func WithMaxCount(limit uint64) Option {
	return func(o *engineOptions) {
		o.maxCount = limit
	}
}

// NewEngine creates a new template engine
func NewEngine(opts ...Option) *Engine {
	o := &engineOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	engine := &Engine{
		cache:  make(map[string]*raymond.Template),
		logger: o.logger,
		repeat: repeat.New(
			repeat.WithLogger(o.logger),
			repeat.WithMaxCount(o.maxCount),
		),
	}

	// Helpers are registered on each compiled template, never globally
	engine.helpers = engine.buildHelpers()

	return engine
}

// Render renders a template with the given data
func (e *Engine) Render(ctx context.Context, templateStr string, data interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Get or compile template
	tmpl, err := e.getTemplate(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	privData := raymond.NewDataFrame()
	privData.Set(contextKey, ctx)

	// Execute the template
	result, err := tmpl.ExecWith(data, privData)
	if err != nil {
		e.logger.Debug("template execution failed",
			zap.String("kind", repeat.Kind(err)),
			zap.Error(err),
		)
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// getTemplate gets a compiled template from cache or compiles it
func (e *Engine) getTemplate(templateStr string) (*raymond.Template, error) {
	// Check cache first (read lock)
	e.mu.RLock()
	if tmpl, ok := e.cache[templateStr]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	// Compile the template (write lock)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if tmpl, ok := e.cache[templateStr]; ok {
		return tmpl, nil
	}

	tmpl, err := e.compile(templateStr)
	if err != nil {
		return nil, err
	}

	// Cache the template
	e.cache[templateStr] = tmpl
	e.logger.Debug("template compiled", zap.Int("cached", len(e.cache)))

	return tmpl, nil
}

// compile validates call sites, parses the template and attaches the helpers
func (e *Engine) compile(templateStr string) (*raymond.Template, error) {
	if err := checkCallSites(templateStr); err != nil {
		return nil, err
	}

	tmpl, err := raymond.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	tmpl.RegisterHelpers(e.helpers)

	return tmpl, nil
}

// ValidateTemplate validates a template without rendering it
func (e *Engine) ValidateTemplate(templateStr string) error {
	return checkCallSites(templateStr)
}

// CacheSize returns the number of compiled templates held by the engine
func (e *Engine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// ClearCache clears the compiled template cache
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*raymond.Template)
}

// Package browser owns the process-wide Playwright lifecycle and the
// per-account session machinery built on top of it: credential-backed
// session materialization, guaranteed release, and interactive login
// capture.
package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Defaults for browser operations.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
)

// EngineOptions configures the shared browser engine.
type EngineOptions struct {
	// Headless controls whether Chromium runs without a visible
	// window. Interactive login capture requires a visible browser, so
	// deployments that add accounts run headful.
	Headless bool

	// Viewport is the size applied to every new context.
	Viewport *Viewport
}

// Viewport is the browser viewport in pixels.
type Viewport struct {
	Width  int
	Height int
}

// Engine is the process-wide browser engine. It is initialized once at
// startup and torn down once at shutdown; every session context is a
// child of it. It is an explicit injected dependency, not hidden
// module state.
type Engine struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	opts        EngineOptions
	initialized bool
}

// NewEngine creates an engine. Start must be called before any
// sessions can be created.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	return &Engine{opts: opts}
}

// Start installs and runs the Playwright driver and launches the
// shared Chromium instance. Calling Start on a started engine is a
// no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	// Discard driver output so it cannot interleave with our logs.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("browser: install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("browser: start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.opts.Headless),
	}
	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("browser: launch chromium: %w", err)
	}

	e.pw = pw
	e.browser = browser
	e.initialized = true
	return nil
}

// Stop closes the shared browser and stops the Playwright driver.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}

	var errs []error
	if err := e.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.pw.Stop(); err != nil {
		errs = append(errs, err)
	}

	e.browser = nil
	e.pw = nil
	e.initialized = false

	if len(errs) > 0 {
		return fmt.Errorf("browser: engine shutdown: %v", errs)
	}
	return nil
}

// newContext creates an isolated context with a single page. The
// caller owns teardown of the returned context.
func (e *Engine) newContext() (playwright.BrowserContext, playwright.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, nil, ErrEngineNotInitialized
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  e.opts.Viewport.Width,
			Height: e.opts.Viewport.Height,
		},
	}
	context, err := e.browser.NewContext(contextOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("browser: create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		return nil, nil, fmt.Errorf("browser: create page: %w", err)
	}

	return context, page, nil
}

// Package driver defines the browser-automation capability the engine
// drives workflows against, and the lifecycle manager that guarantees a
// driver handle is released on every exit path — including cancellation
// and a panicking action — without ever sharing one handle across runs.
package driver

import (
	"context"
	"time"
)

// BrowserType is the closed set of backends a DriverFactory may be asked
// to create, matching the source's browser_type enum.
type BrowserType string

const (
	BrowserChrome  BrowserType = "chrome"
	BrowserFirefox BrowserType = "firefox"
	BrowserEdge    BrowserType = "edge"
	BrowserSafari  BrowserType = "safari"
)

func (b BrowserType) Valid() bool {
	switch b {
	case BrowserChrome, BrowserFirefox, BrowserEdge, BrowserSafari:
		return true
	default:
		return false
	}
}

// Options configures how a driver handle is created.
type Options struct {
	BrowserType    BrowserType
	DriverPath     string
	Headless       bool
	ImplicitWait   time.Duration
	WindowGeometry string
}

// Element is an opaque handle to a located page element.
type Element interface {
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
}

// Driver is the capability every browser backend must satisfy. It is a
// method set, not an abstract base class — any type providing these
// methods is a Driver, so a fake for tests needs no inheritance, just these
// methods.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, selector string) (Element, error)
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	IsPresent(ctx context.Context, selector string) (bool, error)
	Screenshot(ctx context.Context, filePath string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error)
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Quit(ctx context.Context) error
}

// Factory creates a fresh Driver handle for the requested backend. Acquire
// never retries internally — a caller wanting retry semantics wraps its own
// call with pkg/resilience, keeping "should this be retried" a caller
// decision rather than something the factory imposes.
type Factory interface {
	Create(ctx context.Context, opts Options) (Driver, error)
}

// Package seleniumdriver implements internal/driver.Driver over a real
// WebDriver session using tebeka/selenium, the Go binding the source's
// selenium_driver.py wraps. It is the only package in this module that
// imports a browser-automation client directly — everything upstream of
// the driver.Factory seam is browser-agnostic.
package seleniumdriver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tebeka/selenium"

	"github.com/autoqliq/autoqliq/internal/driver"
)

// Factory creates tebeka/selenium-backed driver.Driver handles.
type Factory struct{}

func (Factory) Create(ctx context.Context, opts driver.Options) (driver.Driver, error) {
	caps := selenium.Capabilities{"browserName": string(opts.BrowserType)}
	if opts.Headless {
		switch opts.BrowserType {
		case driver.BrowserChrome, driver.BrowserEdge:
			caps.AddChrome(selenium.ChromeCapabilities{Args: []string{"--headless=new"}})
		case driver.BrowserFirefox:
			caps.AddFirefox(selenium.FirefoxCapabilities{Args: []string{"-headless"}})
		}
	}

	urlPrefix := selenium.DefaultURLPrefix
	if opts.DriverPath != "" {
		urlPrefix = opts.DriverPath
	}

	wd, err := selenium.NewRemote(caps, urlPrefix)
	if err != nil {
		return nil, fmt.Errorf("seleniumdriver: could not start %s session: %w", opts.BrowserType, err)
	}
	if opts.ImplicitWait > 0 {
		if err := wd.SetImplicitWaitTimeout(opts.ImplicitWait); err != nil {
			wd.Quit()
			return nil, fmt.Errorf("seleniumdriver: could not set implicit wait: %w", err)
		}
	}
	return &seleniumWrapper{wd: wd}, nil
}

type seleniumWrapper struct {
	wd selenium.WebDriver
}

type elementWrapper struct {
	el selenium.WebElement
}

func (e elementWrapper) Click(ctx context.Context) error               { return e.el.Click() }
func (e elementWrapper) SendKeys(ctx context.Context, text string) error { return e.el.SendKeys(text) }
func (e elementWrapper) Text(ctx context.Context) (string, error)       { return e.el.Text() }

func (d *seleniumWrapper) Navigate(ctx context.Context, url string) error {
	return d.wd.Get(url)
}

func (d *seleniumWrapper) Find(ctx context.Context, selector string) (driver.Element, error) {
	el, err := d.wd.FindElement(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, err
	}
	return elementWrapper{el: el}, nil
}

func (d *seleniumWrapper) Click(ctx context.Context, selector string) error {
	el, err := d.wd.FindElement(selenium.ByCSSSelector, selector)
	if err != nil {
		return err
	}
	return el.Click()
}

func (d *seleniumWrapper) Type(ctx context.Context, selector, text string) error {
	el, err := d.wd.FindElement(selenium.ByCSSSelector, selector)
	if err != nil {
		return err
	}
	return el.SendKeys(text)
}

func (d *seleniumWrapper) IsPresent(ctx context.Context, selector string) (bool, error) {
	_, err := d.wd.FindElement(selenium.ByCSSSelector, selector)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (d *seleniumWrapper) Screenshot(ctx context.Context, filePath string) error {
	data, err := d.wd.Screenshot()
	if err != nil {
		return err
	}
	return writeFile(filePath, data)
}

func (d *seleniumWrapper) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := d.wd.FindElement(selenium.ByCSSSelector, selector); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("seleniumdriver: %q did not appear within %s", selector, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (d *seleniumWrapper) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	return d.wd.ExecuteScript(script, args)
}

func (d *seleniumWrapper) CurrentURL(ctx context.Context) (string, error) { return d.wd.CurrentURL() }
func (d *seleniumWrapper) Title(ctx context.Context) (string, error)      { return d.wd.Title() }
func (d *seleniumWrapper) Quit(ctx context.Context) error                 { return d.wd.Quit() }

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

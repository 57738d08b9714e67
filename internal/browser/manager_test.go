// File: internal/browser/manager_test.go
package browser

import (
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/lhkpn-cli/internal/browser/stealth"
	"github.com/xkilldash9x/lhkpn-cli/internal/config"
)

func TestBuildAllocatorOptions(t *testing.T) {
	persona := stealth.DefaultPersona()
	base := BuildAllocatorOptions(config.BrowserConfig{Headless: true}, persona)
	assert.Greater(t, len(base), len(chromedp.DefaultExecAllocatorOptions))

	withPath := BuildAllocatorOptions(config.BrowserConfig{Headless: true, ExecPath: "/usr/bin/chromium"}, persona)
	assert.Len(t, withPath, len(base)+1)

	withArgs := BuildAllocatorOptions(config.BrowserConfig{
		Headless: true,
		Args:     []string{"--proxy-server=http://127.0.0.1:8080", "--incognito"},
	}, persona)
	assert.Len(t, withArgs, len(base)+2)
}

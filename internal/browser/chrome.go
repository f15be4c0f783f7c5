// Package browser implements the crawler's Page on headless Chrome.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/yigit/courseatlas/internal/crawl"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
	"github.com/yigit/courseatlas/internal/pkg/logger"
)

const (
	// CardSelector matches one directory card anchor
	CardSelector = `a[class*="TeacherCard__StyledTeacherCard"]`
	// CardNameSelector matches the name block inside a card
	CardNameSelector = `div[class*="CardName__StyledCardName"]`
)

// Options configures the Chrome process
type Options struct {
	Headless       bool
	UserAgent      string
	AcceptLanguage string
}

// Chrome is one browser tab
type Chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// Launch starts Chrome and opens a tab. Close must be called to stop the process.
func Launch(ctx context.Context, opts Options) (*Chrome, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug().Str("component", "browser").Msgf(format, args...)
		}),
	)

	lang := opts.AcceptLanguage
	if lang == "" {
		lang = "en-US,en;q=0.9"
	}
	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": lang}),
	); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Chrome{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

// Close shuts the tab and the browser process
func (c *Chrome) Close() {
	c.cancelTab()
	c.cancelAlloc()
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the document body
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

// WaitForCards waits until the first card is in the DOM
func (c *Chrome) WaitForCards(ctx context.Context) error {
	return c.run(ctx, chromedp.WaitReady(CardSelector, chromedp.ByQuery))
}

var cardsScript = fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(a => {
  const href = (a.getAttribute('href') || '').trim();
  const n = a.querySelector(%q);
  return {name: n ? (n.textContent || '').trim() : '', href: href.startsWith('/professor/') ? href : ''};
})`, CardSelector, CardNameSelector)

// Cards lists the rendered cards in document order
func (c *Chrome) Cards(ctx context.Context) ([]crawl.Card, error) {
	var cards []crawl.Card
	if err := c.run(ctx, chromedp.Evaluate(cardsScript, &cards)); err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	return cards, nil
}

// CardCount counts the rendered cards
func (c *Chrome) CardCount(ctx context.Context) (int, error) {
	var n int
	err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%q).length`, CardSelector), &n))
	return n, err
}

// ClickRole clicks the first visible element with the role whose accessible name
// (text or aria-label) equals name, ignoring case.
func (c *Chrome) ClickRole(ctx context.Context, role, name string) error {
	lower := xpathLiteral(strings.ToLower(name))
	xpath := fmt.Sprintf(`//*[(self::%s or @role=%s) and (%s=%s or %s=%s)]`,
		role, xpathLiteral(role),
		lowerXPath("normalize-space(.)"), lower,
		lowerXPath("normalize-space(@aria-label)"), lower,
	)
	return c.clickSearch(ctx, xpath)
}

// ClickText clicks the first visible element whose own text is exactly text
func (c *Chrome) ClickText(ctx context.Context, text string) error {
	return c.clickSearch(ctx, fmt.Sprintf(`//*[normalize-space(text())=%s]`, xpathLiteral(text)))
}

func (c *Chrome) clickSearch(ctx context.Context, xpath string) error {
	return c.run(ctx,
		chromedp.ScrollIntoView(xpath, chromedp.BySearch, chromedp.NodeVisible),
		chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible),
	)
}

const containerClickScript = `(() => {
  const root = document.querySelector(%q);
  if (!root) return false;
  const el = Array.from(root.querySelectorAll('button')).find(b => (b.textContent || '').trim().toLowerCase() === %q);
  if (!el) return false;
  el.scrollIntoView({block: 'center'});
  el.click();
  return true;
})()`

// ClickInContainer clicks a button inside container whose trimmed lowercase text equals text
func (c *Chrome) ClickInContainer(ctx context.Context, container, text string) error {
	var clicked bool
	script := fmt.Sprintf(containerClickScript, container, strings.ToLower(strings.TrimSpace(text)))
	if err := c.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("button %q in %s: %w", text, container, apperrors.ErrNotFound)
	}
	return nil
}

// ClickAnyButton scans every button in the document
func (c *Chrome) ClickAnyButton(ctx context.Context, text string) (bool, error) {
	var clicked bool
	script := fmt.Sprintf(containerClickScript, "html", strings.ToLower(strings.TrimSpace(text)))
	err := c.run(ctx, chromedp.Evaluate(script, &clicked))
	return clicked, err
}

// ScrollToBottom scrolls the window and presses End
func (c *Chrome) ScrollToBottom(ctx context.Context) error {
	return c.run(ctx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.KeyEvent(kb.End),
	)
}

var _ crawl.Page = (*Chrome)(nil)

func lowerXPath(expr string) string {
	return fmt.Sprintf(`translate(%s, 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz')`, expr)
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

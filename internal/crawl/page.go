package crawl

import (
	"context"
	"fmt"

	"github.com/yigit/courseatlas/internal/pkg/apperrors"
)

// Card is one rendered directory entry. Name or Href may be empty when the card
// has not finished rendering.
type Card struct {
	Name string
	Href string
}

// Page is the browser session driven by the crawler. Every call is bounded by
// the context it receives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitForCards blocks until at least one card is rendered
	WaitForCards(ctx context.Context) error
	// Cards lists every rendered card in document order
	Cards(ctx context.Context) ([]Card, error)
	CardCount(ctx context.Context) (int, error)
	// ClickRole clicks the first visible element with the role and accessible name
	ClickRole(ctx context.Context, role, name string) error
	// ClickText clicks the first visible element whose text is exactly text
	ClickText(ctx context.Context, text string) error
	// ClickInContainer clicks a button inside container whose trimmed, lowercased text equals text
	ClickInContainer(ctx context.Context, container, text string) error
	// ClickAnyButton scans every button in the document; false when none matched
	ClickAnyButton(ctx context.Context, text string) (bool, error)
	ScrollToBottom(ctx context.Context) error
}

// ExpandStrategy tries to load more cards. A nil error means something was clicked.
type ExpandStrategy func(ctx context.Context, page Page) error

// ResultsFooter wraps the expansion button on the directory page
const ResultsFooter = `div[class*="SearchResultsPage__AddPromptWrapper"]`

// DefaultStrategies returns the expansion chain in the order it is tried
func DefaultStrategies(label string) []ExpandStrategy {
	return []ExpandStrategy{
		ByRole(label),
		ByText(label),
		InContainer(ResultsFooter, label),
		ByScan(label),
	}
}

// ByRole clicks the button whose accessible name is label
func ByRole(label string) ExpandStrategy {
	return func(ctx context.Context, page Page) error {
		return page.ClickRole(ctx, "button", label)
	}
}

// ByText clicks the element whose visible text is exactly label
func ByText(label string) ExpandStrategy {
	return func(ctx context.Context, page Page) error {
		return page.ClickText(ctx, label)
	}
}

// InContainer clicks the matching button inside container
func InContainer(container, label string) ExpandStrategy {
	return func(ctx context.Context, page Page) error {
		return page.ClickInContainer(ctx, container, label)
	}
}

// ByScan clicks the first button anywhere in the document whose text matches label
func ByScan(label string) ExpandStrategy {
	return func(ctx context.Context, page Page) error {
		clicked, err := page.ClickAnyButton(ctx, label)
		if err != nil {
			return err
		}
		if !clicked {
			return fmt.Errorf("button %q: %w", label, apperrors.ErrNotFound)
		}
		return nil
	}
}

// overlayLabels are consent and banner buttons dismissed after the first load
var overlayLabels = []string{"Accept", "I Accept", "Agree", "Continue", "Got it", "Okay"}

package domain

import (
	"fmt"
	"strings"
)

// Phase is the application lifecycle phase.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "loading"
}

// Page is the active top-level page.
type Page int

const (
	PageHome Page = iota
	PageAbout
	PageHistory
)

var pageNames = [...]string{"home", "about", "history"}

// Pages lists every page in navigation order.
func Pages() []Page { return []Page{PageHome, PageAbout, PageHistory} }

// Valid reports whether p is a known page.
func (p Page) Valid() bool { return p >= PageHome && p <= PageHistory }

func (p Page) String() string {
	if !p.Valid() {
		return fmt.Sprintf("page(%d)", int(p))
	}
	return pageNames[p]
}

// Title returns the display label of p.
func (p Page) Title() string {
	s := p.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParsePage parses a page name, case-insensitively.
func ParsePage(s string) (Page, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range pageNames {
		if name == s {
			return Page(i), nil
		}
	}
	return PageHome, fmt.Errorf("%w: %q", ErrUnknownPage, s)
}

// MarshalText encodes p by name.
func (p Page) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPage, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a page name.
func (p *Page) UnmarshalText(b []byte) error {
	parsed, err := ParsePage(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Subview is what the Home page shows. It is derived from session state,
// never set directly.
type Subview int

const (
	SubviewWelcome Subview = iota
	SubviewAwaitingScan
	SubviewDashboard
)

func (s Subview) String() string {
	switch s {
	case SubviewAwaitingScan:
		return "awaiting_scan"
	case SubviewDashboard:
		return "dashboard"
	default:
		return "welcome"
	}
}

// DeriveSubview computes the Home subview: Welcome until the intro is
// acknowledged, AwaitingScan while no result is current, Dashboard otherwise.
func DeriveSubview(introAcknowledged, hasResult bool) Subview {
	switch {
	case hasResult:
		return SubviewDashboard
	case !introAcknowledged:
		return SubviewWelcome
	default:
		return SubviewAwaitingScan
	}
}

package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/Tomjg14/research-newsfeed/internal/item"
)

// ErrNoLink is returned when an item carries neither a PDF nor a link.
var ErrNoLink = errors.New("item has no link")

// start launches the platform opener; replaced in tests.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Validate accepts only absolute http(s) URLs.
func Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("refusing to open URL without host: %q", rawURL)
	}
	return nil
}

func Open(rawURL string) error {
	if err := Validate(rawURL); err != nil {
		return err
	}

	switch runtime.GOOS {
	case "darwin":
		return start("open", rawURL)
	case "windows":
		// rundll32 avoids cmd /c start shell interpretation
		return start("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return start("xdg-open", rawURL)
	}
}

// OpenItem opens the item's PDF when present, else its canonical link.
func OpenItem(it item.Item) error {
	link := it.DocumentLink()
	if link == "" {
		return ErrNoLink
	}
	return Open(link)
}

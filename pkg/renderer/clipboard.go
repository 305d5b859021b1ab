package renderer

import (
	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
)

// EditorURL opens a blank online document to paste into.
const EditorURL = "https://docs.new"

// Clipboard copies text for pasting elsewhere.
type Clipboard interface {
	WriteAll(text string) (err error)
}

// Opener opens a URL in the user's browser.
type Opener interface {
	OpenURL(url string) (err error)
}

// SystemClipboard uses the OS clipboard.
type SystemClipboard struct{}

// WriteAll copies text to the OS clipboard.
func (SystemClipboard) WriteAll(text string) (err error) {
	err = clipboard.WriteAll(text)
	return err
}

// SystemOpener uses the default browser.
type SystemOpener struct{}

// OpenURL opens url in the default browser.
func (SystemOpener) OpenURL(url string) (err error) {
	err = browser.OpenURL(url)
	return err
}

// CopyToEditor copies text and then opens a new online document.
func CopyToEditor(cb Clipboard, opener Opener, text string) (err error) {
	err = cb.WriteAll(text)
	if err != nil {
		err = errors.Wrap(err, "failed to copy to clipboard")
		return err
	}

	err = opener.OpenURL(EditorURL)
	if err != nil {
		err = errors.Wrapf(err, "failed to open %s", EditorURL)
		return err
	}

	return err
}

package template

import (
	"fmt"
	"strings"
)

// NotFoundError reports a missing template input along with the directory
// searched and nearby candidate files. Template folders carry free-form
// human-chosen names, so a naming mismatch is the dominant failure mode and
// the message has to be enough to fix it without re-running.
type NotFoundError struct {
	Path       string
	Dir        string
	Candidates []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "template input not found: %s (searched in %s)", e.Path, e.Dir)
	if len(e.Candidates) > 0 {
		b.WriteString("; candidates: ")
		b.WriteString(strings.Join(e.Candidates, ", "))
	}
	return b.String()
}

// SlotNotFoundError reports a managed slot absent from the document. A
// silent miss would produce a batch of accidentally identical runs, so this
// is always fatal.
type SlotNotFoundError struct {
	Slot  string
	Path  string
	Style Style
}

func (e *SlotNotFoundError) Error() string {
	return fmt.Sprintf("template %s has no %q slot for style %s", e.Path, e.Slot, e.Style)
}

// MixedStyleError reports a slot written in the other substitution style
// than the one requested for the batch.
type MixedStyleError struct {
	Slot      string
	Path      string
	Requested Style
}

func (e *MixedStyleError) Error() string {
	return fmt.Sprintf("template %s: slot %q does not match requested style %s (mixing styles in one template is not supported)",
		e.Path, e.Slot, e.Requested)
}

// Package template loads parameterized simulator input documents and
// rewrites their randomization slots (seed, x_pos, y_pos) for one run.
// Everything outside a recognized slot is preserved byte-for-byte.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Style selects how the managed slots are rewritten.
type Style string

const (
	// StyleSimple replaces the right-hand side of plain assignment
	// statements (variable x_pos equal 0.0) with concrete drawn values.
	StyleSimple Style = "simple"

	// StyleLoopRandomXY rewrites the bounds and additive seed offset of
	// bounded-random-draw expressions (variable x_pos equal random(...)),
	// leaving the actual draw to the simulator.
	StyleLoopRandomXY Style = "loop-random-xy"
)

// ParseStyle maps a user-supplied style name to a Style.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleSimple, StyleLoopRandomXY:
		return Style(s), nil
	default:
		return "", fmt.Errorf("unknown substitution style %q (valid: %s, %s)", s, StyleSimple, StyleLoopRandomXY)
	}
}

// Range is an inclusive numeric interval embedded verbatim into
// loop-random-xy templates.
type Range struct {
	Min float64
	Max float64
}

// Document is an in-memory template text with its source path kept for
// diagnostics. Substitution never mutates a Document; it returns a new one.
type Document struct {
	Path string
	Text string
}

// Substitution carries the per-run values for one rewrite. Which fields are
// consulted depends on Style: simple uses Seed/X/Y, loop-random-xy uses
// SeedOffset/XRange/YRange.
type Substitution struct {
	Style      Style
	Seed       int64
	X          float64
	Y          float64
	SeedOffset int64
	XRange     Range
	YRange     Range
}

// Slot variable names recognized in the input document.
const (
	slotSeed = "seed"
	slotX    = "x_pos"
	slotY    = "y_pos"
)

// Load reads the template input from dir. name may be absolute, in which
// case dir is ignored. A missing file yields a *NotFoundError listing
// similarly named candidates in dir so a mistyped name is easy to correct.
func Load(dir, name string) (Document, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, &NotFoundError{
				Path:       path,
				Dir:        dir,
				Candidates: candidateInputs(dir),
			}
		}
		return Document{}, fmt.Errorf("reading template %s: %w", path, err)
	}
	return Document{Path: path, Text: string(data)}, nil
}

// candidateInputs lists files in dir that look like simulator inputs, for
// inclusion in NotFoundError diagnostics.
func candidateInputs(dir string) []string {
	var names []string
	for _, pat := range []string{"*.txt", "*.lmp", "*.data"} {
		matches, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			continue
		}
		for _, m := range matches {
			names = append(names, filepath.Base(m))
		}
	}
	sort.Strings(names)
	if len(names) > 30 {
		names = names[:30]
	}
	return names
}

// assignRE matches a plain assignment line for the named slot. Group 1 is
// everything up to the value, group 2 the value token, group 3 the rest of
// the line (trailing comment, whitespace).
func assignRE(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^([ \t]*variable[ \t]+` + name + `[ \t]+equal[ \t]+)(\S+)([^\n]*)$`)
}

// randomRE matches a bounded-random-draw line for the named slot:
// variable <name> equal random(<min>,<max>,<offset>[+v_...]). Groups keep
// all punctuation so only the three numeric literals are replaced.
func randomRE(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^([ \t]*variable[ \t]+` + name + `[ \t]+equal[ \t]+random\([ \t]*)` +
		`([-+0-9.eE]+)([ \t]*,[ \t]*)([-+0-9.eE]+)([ \t]*,[ \t]*)([0-9]+)([^\n]*)$`)
}

var randomCallRE = regexp.MustCompile(`(?i)^random\(`)

// Substitute returns a copy of doc with the managed slots rewritten for one
// run. All bytes outside the replaced value tokens are preserved. A slot
// that cannot be located fails with *SlotNotFoundError; a template whose
// slots use the other style fails with *MixedStyleError.
func Substitute(doc Document, sub Substitution) (Document, error) {
	switch sub.Style {
	case StyleSimple:
		return substituteSimple(doc, sub)
	case StyleLoopRandomXY:
		return substituteLoopRandom(doc, sub)
	default:
		return Document{}, fmt.Errorf("unknown substitution style %q", sub.Style)
	}
}

func substituteSimple(doc Document, sub Substitution) (Document, error) {
	text := doc.Text
	values := []struct {
		slot  string
		value string
	}{
		{slotSeed, strconv.FormatInt(sub.Seed, 10)},
		{slotX, formatPos(sub.X)},
		{slotY, formatPos(sub.Y)},
	}
	for _, v := range values {
		re := assignRE(v.slot)
		m := re.FindStringSubmatch(text)
		if m == nil {
			return Document{}, &SlotNotFoundError{Slot: v.slot, Path: doc.Path, Style: StyleSimple}
		}
		if randomCallRE.MatchString(m[2]) {
			return Document{}, &MixedStyleError{Slot: v.slot, Path: doc.Path, Requested: StyleSimple}
		}
		text = re.ReplaceAllString(text, "${1}"+v.value+"${3}")
	}
	return Document{Path: doc.Path, Text: text}, nil
}

func substituteLoopRandom(doc Document, sub Substitution) (Document, error) {
	text := doc.Text
	draws := []struct {
		slot string
		rng  Range
	}{
		{slotX, sub.XRange},
		{slotY, sub.YRange},
	}
	offset := strconv.FormatInt(sub.SeedOffset, 10)
	for _, d := range draws {
		re := randomRE(d.slot)
		if re.FindStringIndex(text) == nil {
			// A plain assignment for the slot means the template was
			// written for the simple style.
			if m := assignRE(d.slot).FindStringSubmatch(text); m != nil && !randomCallRE.MatchString(m[2]) {
				return Document{}, &MixedStyleError{Slot: d.slot, Path: doc.Path, Requested: StyleLoopRandomXY}
			}
			return Document{}, &SlotNotFoundError{Slot: d.slot, Path: doc.Path, Style: StyleLoopRandomXY}
		}
		text = re.ReplaceAllString(text,
			"${1}"+formatBound(d.rng.Min)+"${3}"+formatBound(d.rng.Max)+"${5}"+offset+"${7}")
	}
	// A seed assignment is optional under this style; when present it is
	// kept in step with the per-run offset.
	if re := assignRE(slotSeed); re.FindStringIndex(text) != nil {
		text = re.ReplaceAllString(text, "${1}"+offset+"${3}")
	}
	return Document{Path: doc.Path, Text: text}, nil
}

// formatPos renders a drawn coordinate with fixed precision, matching the
// simulator's input conventions.
func formatPos(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// formatBound renders a range bound without padding so -20 stays "-20".
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

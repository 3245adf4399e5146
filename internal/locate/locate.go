// Package locate resolves user-supplied paths, directories, and wildcard
// patterns into the concrete set of result files to analyze. Patterns that
// match nothing are reported per pattern rather than silently dropped: the
// dominant real-world failure here is a mistyped directory name, and the
// caller needs to say exactly which argument found zero files.
package locate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultResultNames are the filenames probed inside a directory argument,
// in preference order.
var DefaultResultNames = []string{"N_list", "N_list.txt", "N_list.xyz"}

// Miss records a pattern that resolved to zero result files.
type Miss struct {
	Pattern string
	Reason  string
}

func (m Miss) String() string {
	return fmt.Sprintf("%q matched 0 files (%s)", m.Pattern, m.Reason)
}

// Resolution is the outcome of locating one set of patterns: the ordered,
// de-duplicated files plus every pattern that found nothing.
type Resolution struct {
	Files  []string
	Misses []Miss
}

// Locate expands each pattern in order. A pattern containing glob
// metacharacters is expanded with filepath.Glob; matched directories are
// probed for the default result filenames. A plain path may be a file
// (taken as-is), or a directory (probed the same way). Whitespace in a
// pattern is an ordinary path byte, never a separator. resultNames
// overrides DefaultResultNames when non-empty.
func Locate(patterns []string, resultNames []string) (Resolution, error) {
	if len(resultNames) == 0 {
		resultNames = DefaultResultNames
	}

	var res Resolution
	seen := make(map[string]bool)

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		res.Files = append(res.Files, path)
	}

	for _, pat := range patterns {
		if pat == "" {
			res.Misses = append(res.Misses, Miss{Pattern: pat, Reason: "empty pattern"})
			continue
		}
		if hasGlobMeta(pat) {
			matches, err := expandPattern(pat)
			if err != nil {
				return Resolution{}, fmt.Errorf("bad pattern %q: %w", pat, err)
			}
			sort.Strings(matches)
			found := 0
			for _, m := range matches {
				info, err := os.Stat(m)
				if err != nil {
					continue
				}
				if info.IsDir() {
					if hit := probeDir(m, resultNames); hit != "" {
						add(hit)
						found++
					}
					continue
				}
				add(m)
				found++
			}
			if found == 0 {
				res.Misses = append(res.Misses, Miss{Pattern: pat, Reason: "no matching result files"})
			}
			continue
		}

		info, err := os.Stat(pat)
		if err != nil {
			res.Misses = append(res.Misses, Miss{Pattern: pat, Reason: "no such file or directory"})
			continue
		}
		if info.IsDir() {
			if hit := probeDir(pat, resultNames); hit != "" {
				add(hit)
			} else {
				res.Misses = append(res.Misses, Miss{
					Pattern: pat,
					Reason:  "directory has none of " + strings.Join(resultNames, ", "),
				})
			}
			continue
		}
		add(pat)
	}
	return res, nil
}

// expandPattern expands one glob pattern. "**" matches any number of path
// segments, so patterns like runs/**/N_list reach arbitrarily nested run
// directories; filepath.Glob alone would read it as a single segment.
func expandPattern(pat string) ([]string, error) {
	if !strings.Contains(pat, "**") {
		return filepath.Glob(pat)
	}
	segs := strings.Split(filepath.ToSlash(pat), "/")

	// Walk from the longest static prefix.
	i := 0
	for ; i < len(segs); i++ {
		if strings.ContainsAny(segs[i], "*?[") {
			break
		}
	}
	root := strings.Join(segs[:i], "/")
	if root == "" {
		if strings.HasPrefix(pat, "/") {
			root = "/"
		} else {
			root = "."
		}
	}
	for _, seg := range segs[i:] {
		if seg != "**" {
			if _, err := filepath.Match(seg, ""); err != nil {
				return nil, err
			}
		}
	}

	var matches []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		if matchSegments(segs[i:], strings.Split(filepath.ToSlash(rel), "/")) {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, nil
}

// matchSegments matches path segments against pattern segments, where a
// bare "**" spans zero or more segments.
func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		for k := 0; k <= len(segs); k++ {
			if matchSegments(pat[1:], segs[k:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if ok, err := filepath.Match(pat[0], segs[0]); err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}

// probeDir returns the first default result file present in dir, or "".
func probeDir(dir string, names []string) string {
	for _, name := range names {
		cand := filepath.Join(dir, name)
		if info, err := os.Stat(cand); err == nil && !info.IsDir() {
			return cand
		}
	}
	return ""
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// Package paths turns the user supplied result locations into the list of
// report files to publish.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const globMeta = "*?["

// ErrNoPaths is returned when include minus exclude is empty.
var ErrNoPaths = errors.New("There are no paths to fetch data from")

// MissingPathsError lists resolved paths that do not exist.
type MissingPathsError struct {
	Paths []string
}

func (e *MissingPathsError) Error() string {
	return fmt.Sprintf("Paths not exist: %s", strings.Join(e.Paths, ", "))
}

// Resolve expands both pattern lists and returns the included paths not
// excluded, sorted, together with the expanded exclude list.
func Resolve(fs afero.Fs, include, exclude []string) (paths, excluded []string, err error) {
	paths, err = Expand(fs, include)
	if err != nil {
		return nil, nil, err
	}
	excluded, err = Expand(fs, exclude)
	if err != nil {
		return nil, nil, err
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, p := range excluded {
		skip[p] = struct{}{}
	}
	kept := []string{}
	for _, p := range paths {
		if _, ok := skip[p]; !ok {
			kept = append(kept, p)
		}
	}
	log.WithFields(log.Fields{
		"included": len(paths),
		"excluded": len(paths) - len(kept),
	}).Debug("Resolved test result paths")

	if len(kept) == 0 {
		return kept, excluded, ErrNoPaths
	}
	if missing := Missing(fs, kept); len(missing) > 0 {
		return kept, excluded, &MissingPathsError{Paths: missing}
	}
	return kept, excluded, nil
}

// Missing returns the entries of paths not present on fs.
func Missing(fs afero.Fs, paths []string) []string {
	var out []string
	for _, p := range paths {
		if ok, _ := afero.Exists(fs, p); !ok {
			out = append(out, p)
		}
	}
	return out
}

// Expand resolves every pattern. Patterns without glob metacharacters are
// kept verbatim whether they exist or not.
func Expand(fs afero.Fs, patterns []string) ([]string, error) {
	seen := map[string]struct{}{}
	out := []string{}
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, raw := range patterns {
		pattern := expandUser(expandVars(strings.TrimSpace(raw)))
		if pattern == "" {
			continue
		}
		if !strings.ContainsAny(pattern, globMeta) {
			add(pattern)
			continue
		}
		matches, err := match(fs, pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding %q", raw)
		}
		for _, m := range matches {
			add(m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func match(fs afero.Fs, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(filepath.Clean(pattern))
	// a leading "**/" is matched against "/"-prefixed candidates
	lead := ""
	expr := pattern
	if strings.HasPrefix(expr, "**/") {
		lead, expr = "/", "/"+expr
	}
	// "/**/" also matches a single separator
	g, err := glob.Compile(strings.ReplaceAll(expr, "/**/", "{,/**}/"), '/')
	if err != nil {
		return nil, err
	}

	root := staticPrefix(pattern)
	recursive := strings.Contains(pattern, "**")
	depth := len(strings.Split(pattern, "/"))
	allowHidden := matchesHidden(pattern, root)

	var out []string
	err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		slashed := filepath.ToSlash(path)
		if slashed != root && !allowHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if slashed != root && g.Match(lead+slashed) {
			out = append(out, path)
		}
		if info.IsDir() && slashed != root && !recursive && len(strings.Split(slashed, "/")) >= depth {
			return filepath.SkipDir
		}
		return nil
	})
	return out, err
}

// staticPrefix is the directory part of pattern before the first component
// holding a metacharacter.
func staticPrefix(pattern string) string {
	parts := strings.Split(pattern, "/")
	var static []string
	for _, p := range parts[:len(parts)-1] {
		if strings.ContainsAny(p, globMeta) {
			break
		}
		static = append(static, p)
	}
	if len(static) == 0 {
		return "."
	}
	root := strings.Join(static, "/")
	if root == "" {
		return "/"
	}
	return root
}

// matchesHidden reports whether a component after root starts with a dot.
func matchesHidden(pattern, root string) bool {
	rest := pattern
	if root != "." {
		rest = strings.TrimPrefix(pattern, root)
	}
	rest = strings.TrimPrefix(rest, "/")
	return strings.HasPrefix(rest, ".") || strings.Contains(rest, "/.")
}

func expandUser(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return home + strings.TrimPrefix(p, "~")
}

// expandVars leaves unknown variables untouched.
func expandVars(p string) string {
	return os.Expand(p, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	})
}

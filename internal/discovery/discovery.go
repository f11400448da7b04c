// Package discovery locates assistant log files across the on-disk
// layouts the host CLI has used over time.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxDepth bounds recursion below each root so an unexpected directory
// structure cannot trigger a runaway scan.
const maxDepth = 6

// Options configures a discovery pass.
type Options struct {
	// OverrideRoot, when set, is searched instead of the default
	// well-known paths. Used for restricted-filesystem grants.
	OverrideRoot string
}

// CandidateRoots returns every root directory that would be searched,
// whether or not it exists. Used for "here is where I looked" messages.
func CandidateRoots(opts Options) []string {
	var candidates []string
	if opts.OverrideRoot != "" {
		candidates = append(candidates, opts.OverrideRoot)
	} else {
		if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
			candidates = append(candidates, dir)
		}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates,
				filepath.Join(home, ".claude", "projects"),
				filepath.Join(home, ".config", "claude", "projects"),
				// legacy flat layout of daily log files
				filepath.Join(home, ".claude", "usage"),
			)
		}
	}
	return candidates
}

// Roots returns the candidate roots that exist on disk.
func Roots(opts Options) []string {
	var roots []string
	for _, c := range CandidateRoots(opts) {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			roots = append(roots, c)
		}
	}
	return roots
}

// FindLogFiles returns the deduplicated, sorted union of all .jsonl files
// under the configured roots. A missing root is a valid "no data yet"
// state: the result is empty and the error is nil.
func FindLogFiles(opts Options) ([]string, error) {
	roots := Roots(opts)
	if len(roots) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var files []string

	for _, root := range roots {
		// A nested projects/ directory is preferred when the root is a
		// config dir rather than the projects tree itself.
		scanRoot := root
		if nested := filepath.Join(root, "projects"); dirExists(nested) {
			scanRoot = nested
		}

		err := filepath.WalkDir(scanRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries, keep walking
			}
			if d.IsDir() {
				if depthBelow(scanRoot, path) > maxDepth {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".jsonl") {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}
			files = append(files, path)
			return nil
		})
		if err != nil {
			// Walk errors other than per-entry ones are rare; treat the
			// root as unscannable and keep the union from other roots.
			continue
		}
	}

	sort.Strings(files)
	return files, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

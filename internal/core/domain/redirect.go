package domain

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

// RedirectFlag is the command line flag that carries one redirect directive.
const RedirectFlag = "--redirect"

// PackageRedirectTable maps declared package URIs to alternate URIs or local paths.
// It is populated before resolution starts and only read afterwards.
type PackageRedirectTable struct {
	mu      sync.RWMutex
	targets map[string]string
}

// NewPackageRedirectTable returns an empty table.
func NewPackageRedirectTable() *PackageRedirectTable {
	return &PackageRedirectTable{targets: make(map[string]string)}
}

// RegisterLocalRedirect maps original to target. The last registration for an original wins.
func (t *PackageRedirectTable) RegisterLocalRedirect(original, target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targets[original] = target
}

// Resolve returns the redirect target for uri.
func (t *PackageRedirectTable) Resolve(uri string) (string, bool) {
	if t == nil {
		return "", false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	target, ok := t.targets[uri]
	return target, ok
}

// Clone returns an independent copy of the table.
func (t *PackageRedirectTable) Clone() *PackageRedirectTable {
	out := NewPackageRedirectTable()
	if t == nil {
		return out
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for original, target := range t.targets {
		out.targets[original] = target
	}
	return out
}

// Len returns the number of registered redirects.
func (t *PackageRedirectTable) Len() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.targets)
}

// Arguments serializes the table as argv entries for a child process, sorted by original URI.
func (t *PackageRedirectTable) Arguments() []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	originals := make([]string, 0, len(t.targets))
	for original := range t.targets {
		originals = append(originals, original)
	}
	sort.Strings(originals)

	args := make([]string, 0, 2*len(originals))
	for _, original := range originals {
		args = append(args, RedirectFlag, original+"="+t.targets[original])
	}
	return args
}

// GetRedirectionArguments serializes the table as a single shell-quoted argument string.
func (t *PackageRedirectTable) GetRedirectionArguments() string {
	args := t.Arguments()
	parts := make([]string, 0, len(args))
	for i, arg := range args {
		if i%2 == 0 {
			parts = append(parts, arg)
			continue
		}
		parts = append(parts, strconv.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// ParseRedirect splits an ORIGINAL=TARGET directive. The first '=' separates the two,
// since targets may themselves contain '='.
func ParseRedirect(directive string) (original, target string, err error) {
	original, target, ok := strings.Cut(directive, "=")
	original = strings.TrimSpace(original)
	target = strings.TrimSpace(target)
	if !ok || original == "" || target == "" {
		return "", "", zerr.With(zerr.Wrap(ErrInvalidRedirect, "bad redirect directive"), "directive", directive)
	}
	return original, target, nil
}

// NewRedirectTableFromDirectives builds a table from ORIGINAL=TARGET directives in order.
func NewRedirectTableFromDirectives(directives []string) (*PackageRedirectTable, error) {
	table := NewPackageRedirectTable()
	for _, d := range directives {
		original, target, err := ParseRedirect(d)
		if err != nil {
			return nil, err
		}
		table.RegisterLocalRedirect(original, target)
	}
	return table, nil
}

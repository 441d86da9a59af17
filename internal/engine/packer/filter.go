package packer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/zerr"
)

type ruleKind int

const (
	ruleInclude ruleKind = iota
	ruleExclude
	ruleRewrite
)

type rule struct {
	kind        ruleKind
	pattern     *regexp.Regexp
	replacement string
	line        int
}

// Filter selects and renames the files of a module for packaging.
//
// Each non-empty line is one rule, applied in order:
//
//	include <regex>                 add every file whose path matches
//	exclude <regex>                 drop selected files whose packaged path matches
//	rewrite <regex> <replacement>   rename the one selected file that matches
//
// Lines starting with '#' are comments. Paths are slash-separated and relative to the module.
type Filter struct {
	rules []rule
}

// ParseFilter reads a filter file.
func ParseFilter(r io.Reader) (*Filter, error) {
	f := &Filter{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		verb, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		var (
			r   rule
			err error
		)
		r.line = lineNo
		switch verb {
		case "include", "exclude":
			r.kind = ruleInclude
			if verb == "exclude" {
				r.kind = ruleExclude
			}
			r.pattern, err = compile(rest, lineNo)
		case "rewrite":
			pattern, replacement, ok := strings.Cut(rest, " ")
			if !ok || strings.TrimSpace(replacement) == "" {
				return nil, parseError(lineNo, "rewrite needs a pattern and a replacement")
			}
			r.kind = ruleRewrite
			r.replacement = strings.TrimSpace(replacement)
			r.pattern, err = compile(pattern, lineNo)
		default:
			return nil, parseError(lineNo, fmt.Sprintf("unknown rule %q", verb))
		}
		if err != nil {
			return nil, err
		}
		f.rules = append(f.rules, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrFilterParseFailed.Error())
	}
	return f, nil
}

func compile(pattern string, line int) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, parseError(line, "missing pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, parseError(line, err.Error())
	}
	return re, nil
}

func parseError(line int, msg string) error {
	return zerr.With(zerr.Wrap(domain.ErrFilterParseFailed, msg), "line", line)
}

// Apply maps packaged paths to source paths for the given candidate files. A rewrite rule that
// does not match exactly one selected file fails immediately.
func (f *Filter) Apply(files []string) (map[string]string, error) {
	selected := make(map[string]string)

	for _, r := range f.rules {
		switch r.kind {
		case ruleInclude:
			for _, file := range files {
				if r.pattern.MatchString(file) {
					selected[file] = file
				}
			}
		case ruleExclude:
			for dest := range selected {
				if r.pattern.MatchString(dest) {
					delete(selected, dest)
				}
			}
		case ruleRewrite:
			var matches []string
			for dest := range selected {
				if r.pattern.MatchString(dest) {
					matches = append(matches, dest)
				}
			}
			if len(matches) != 1 {
				sort.Strings(matches)
				err := zerr.Wrap(domain.ErrFilterMatchCount, fmt.Sprintf("rewrite %s matched %d files", r.pattern, len(matches)))
				err = zerr.With(err, "line", r.line)
				return nil, zerr.With(err, "matches", strings.Join(matches, ", "))
			}
			src := selected[matches[0]]
			delete(selected, matches[0])
			selected[r.pattern.ReplaceAllString(matches[0], r.replacement)] = src
		}
	}
	return selected, nil
}

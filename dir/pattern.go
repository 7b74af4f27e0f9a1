// Package dir stores tile members as individual files with paths built from
// a pattern like "/out/{slot}-{name}.tile".
package dir

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidPattern = errors.New("quadtiles: invalid file pattern")

func validatePattern(pattern string) error {
	if strings.Count(pattern, "{slot}") != 1 {
		return fmt.Errorf("%w: placeholder {slot} must occur once", ErrInvalidPattern)
	}
	if strings.Count(pattern, "{name}") > 1 {
		return fmt.Errorf("%w: placeholder {name} occurs more than once", ErrInvalidPattern)
	}
	return nil
}

func formatPattern(pattern string, slot int, name string) string {
	result := pattern
	result = strings.ReplaceAll(result, "{slot}", strconv.Itoa(slot))
	result = strings.ReplaceAll(result, "{name}", strings.ReplaceAll(name, "/", "_"))
	return result
}

func patternRegexp(pattern string) (*regexp.Regexp, error) {
	regexPattern := regexp.QuoteMeta(pattern)
	regexPattern = strings.ReplaceAll(regexPattern, regexp.QuoteMeta("{slot}"), "(?P<slot>\\d+)")
	regexPattern = strings.ReplaceAll(regexPattern, regexp.QuoteMeta("{name}"), "(?P<name>[^/]*)")
	pathRegexp, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return pathRegexp, nil
}

// rootDir returns the longest directory shared by all paths of pattern.
func rootDir(pattern string) string {
	path0 := formatPattern(pattern, 0, "a")
	path1 := formatPattern(pattern, 10, "b")
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}
	return path0
}

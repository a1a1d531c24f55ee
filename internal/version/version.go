// Package version exposes the release version of gatehouse.
package version

import (
	_ "embed" // for go:embed
	"strconv"
	"strings"
)

// VERSION holds the server's version
//
//go:embed VERSION
var VERSION string

// Version segments
var (
	MAJOR int
	MINOR int
	FIX   int
	PRE   int
)

func init() {
	VERSION = strings.TrimSpace(VERSION)
	MAJOR, MINOR, FIX, PRE = parse(VERSION)
}

// parse splits a version of the form MAJOR.MINOR.FIX[-prN]; missing or
// malformed segments are 0
func parse(v string) (major, minor, fix, pre int) {
	core, preRelease, _ := strings.Cut(v, "-")
	segments := strings.SplitN(core, ".", 3)
	values := make([]int, 3)
	for i, s := range segments {
		values[i], _ = strconv.Atoi(s)
	}
	if preRelease != "" {
		pre, _ = strconv.Atoi(strings.TrimPrefix(preRelease, "pr"))
	}
	return values[0], values[1], values[2], pre
}

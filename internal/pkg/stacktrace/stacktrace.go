// Package stacktrace trims goroutine dumps down to this module's own frames.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// a debug.Stack dump that points into an internal/ package.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		// file lines look like "/src/app/internal/auth/usecase/otp.go:42 +0x1d"
		file, _, _ := strings.Cut(line, " ")
		if !strings.Contains(file, ".go:") {
			continue
		}
		idx := strings.Index(file, "/internal/")
		if idx == -1 {
			continue
		}
		paths = append(paths, file[idx+1:])
	}

	return paths
}

// Package cprint prints colored diagnostics for the prefab engine:
// non-fatal warnings (unregistered component types dropped or skipped
// during cloning, cooking, or diff application; component add/remove
// dropped by a prefab builder) and the cmd/prefabdemo summary. Adapted from
// Kong-go-database-reconciler/pkg/cprint/color.go, same foreground-colored
// Printf/Println helpers over github.com/fatih/color, the same
// DisableOutput switch and mutex for concurrent-safe writes.
package cprint

import (
	"sync"

	"github.com/fatih/color"
)

var (
	mu sync.Mutex
	// DisableOutput disables all output; tests flip it to keep stdout clean.
	DisableOutput bool
)

func conditionalPrintf(fn func(string, ...interface{}), format string, a ...interface{}) {
	if DisableOutput {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	fn(format, a...)
}

func conditionalPrintln(fn func(...interface{}), a ...interface{}) {
	if DisableOutput {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	fn(a...)
}

var (
	addPrintf    = color.New(color.FgGreen).PrintfFunc()
	removePrintf = color.New(color.FgRed).PrintfFunc()
	warnPrintf   = color.New(color.FgYellow).PrintfFunc()

	addPrintln    = color.New(color.FgGreen).PrintlnFunc()
	removePrintln = color.New(color.FgRed).PrintlnFunc()
	warnPrintln   = color.New(color.FgYellow).PrintlnFunc()

	// AddPrintf is fmt.Printf with green as foreground color, used for
	// the demo driver's progress summary.
	AddPrintf = func(format string, a ...interface{}) { conditionalPrintf(addPrintf, format, a...) }
	// RemovePrintf is fmt.Printf with red as foreground color.
	RemovePrintf = func(format string, a ...interface{}) { conditionalPrintf(removePrintf, format, a...) }
	// WarnPrintf is fmt.Printf with yellow as foreground color, used for
	// non-fatal diagnostics (unknown type on clone/cook/diff apply,
	// builder-dropped component add/remove).
	WarnPrintf = func(format string, a ...interface{}) { conditionalPrintf(warnPrintf, format, a...) }

	// AddPrintln is fmt.Println with green as foreground color.
	AddPrintln = func(a ...interface{}) { conditionalPrintln(addPrintln, a...) }
	// RemovePrintln is fmt.Println with red as foreground color.
	RemovePrintln = func(a ...interface{}) { conditionalPrintln(removePrintln, a...) }
	// WarnPrintln is fmt.Println with yellow as foreground color.
	WarnPrintln = func(a ...interface{}) { conditionalPrintln(warnPrintln, a...) }
)

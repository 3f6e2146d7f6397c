package cprint

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func captureOutput(f func()) string {
	backup := color.Output
	defer func() { color.Output = backup }()
	var out bytes.Buffer
	color.Output = &out
	f()
	return out.String()
}

func TestMain(m *testing.M) {
	backup := color.NoColor
	color.NoColor = false
	exitVal := m.Run()
	color.NoColor = backup
	os.Exit(exitVal)
}

func TestPrintlnColors(t *testing.T) {
	out := captureOutput(func() {
		AddPrintln("added")
		WarnPrintln("warned")
		RemovePrintln("removed")
	})
	assert.Equal(t, "\x1b[32madded\x1b[0m\n\x1b[33mwarned\x1b[0m\n\x1b[31mremoved\x1b[0m\n", out)
}

func TestPrintfDisabled(t *testing.T) {
	DisableOutput = true
	defer func() { DisableOutput = false }()

	out := captureOutput(func() {
		AddPrintf("%s", "added")
		WarnPrintf("%s", "warned")
	})
	assert.Empty(t, out)
}

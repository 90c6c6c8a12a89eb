package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/drydocklab/drydock/shell"
)

// LaunchCommand renders the shell command line that starts this driver on an
// execution node. Every token that originates from client input is escaped,
// so each original argument stays a single shell word and the line is safe to
// splice into a generated script.
func (d *DriverDescription) LaunchCommand() string {
	var parts []string

	// environment assignments first, in stable order
	keys := make([]string, 0, len(d.Command.Environment))
	for k := range d.Command.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+shell.Escape(d.Command.Environment[k]))
	}

	parts = append(parts, shell.Escape(d.Command.Main))
	parts = append(parts, "--memory", fmt.Sprintf("%dM", d.MemoryMB))
	parts = append(parts, "--cores", strconv.Itoa(d.Cores))

	if len(d.Command.Classpath) > 0 {
		parts = append(parts, "--class-path", shell.Escape(strings.Join(d.Command.Classpath, ":")))
	}
	if len(d.Command.LibraryPath) > 0 {
		parts = append(parts, "--library-path", shell.Escape(strings.Join(d.Command.LibraryPath, ":")))
	}

	for _, arg := range d.Command.Arguments {
		parts = append(parts, shell.Escape(arg))
	}

	return strings.Join(parts, " ")
}

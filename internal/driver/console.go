package driver

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/types"
)

// Console prints session output. Each line is written with a single call so
// that lines never interleave.
type Console struct {
	out     io.Writer
	colored bool
	mu      sync.Mutex
}

// NewConsole creates a console writing to out. Colors are only applied when
// colored is true.
func NewConsole(out io.Writer, colored bool) *Console {
	return &Console{out: out, colored: colored}
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

func (c *Console) paint(attr color.Attribute, s string) string {
	if !c.colored {
		return s
	}
	return color.New(attr).Sprint(s)
}

// TrackerCreated announces a successful tracker creation
func (c *Console) TrackerCreated() {
	c.println(c.paint(color.FgGreen, "Created user tracker successfully"))
}

// TrackerFailed prints the status returned by tracker creation
func (c *Console) TrackerFailed(status nite.Status) {
	c.println(c.paint(color.FgRed, fmt.Sprintf("Create returned: %s", status)))
}

// Appeared announces a new user
func (c *Console) Appeared(user *types.User) {
	c.println(c.paint(color.FgYellow, fmt.Sprintf("USER %d APPEARED", user.ID)))
}

// Skeleton prints the user's current skeleton
func (c *Console) Skeleton(user *types.User) {
	c.println(fmt.Sprintf("Skeleton [%d]: %s", user.ID, user.Skeleton))
}

// ShuttingDown announces teardown
func (c *Console) ShuttingDown() {
	c.println(c.paint(color.FgCyan, "Shutting down NiTE"))
}

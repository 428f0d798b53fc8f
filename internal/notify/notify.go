// Package notify warns the user through an external notification command.
package notify

import (
	"context"
	"fmt"
	"os/exec"

	"codeberg.org/mutker/battwarn/internal/errors"
	"codeberg.org/mutker/battwarn/internal/logger"
)

const (
	DefaultProgram = "notify-send"
)

// DefaultArgs are passed to DefaultProgram ahead of the message.
var DefaultArgs = []string{
	"--urgency=critical",
	"--app-name=BATTERY WARNING",
	"--expire-time=600000", // 600s
}

// Command runs Program with Args followed by the message.
type Command struct {
	Program string
	Args    []string
}

var _ Sender = Command{}

// DefaultCommand returns the notify-send invocation.
func DefaultCommand() Command {
	return Command{
		Program: DefaultProgram,
		Args:    append([]string(nil), DefaultArgs...),
	}
}

// Argv returns the full argument vector for message, program first.
func (c Command) Argv(message string) []string {
	argv := make([]string, 0, len(c.Args)+2)
	argv = append(argv, c.Program)
	argv = append(argv, c.Args...)

	return append(argv, message)
}

// Send runs the command and waits for it. Only a failure to launch the
// program is reported; its exit status is not.
func (c Command) Send(ctx context.Context, message string) error {
	errFactory := errors.New()

	if c.Program == "" {
		return errFactory.New(ErrEmptyCommand)
	}

	argv := c.Argv(message)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return errFactory.Wrap(ErrNotifyFailed, err)
	}

	if err := cmd.Wait(); err != nil {
		logger.Debug().Err(err).Str("program", c.Program).Msg("Notification command exited with error")
	}

	return nil
}

// Message formats the warning shown for a battery at ratio.
func Message(id string, ratio float64) string {
	return fmt.Sprintf("Attention: Battery %s is below threshold. Current battery level is %.2f%%", id, ratio*100)
}

// Notify warns that battery id is at ratio.
func Notify(ctx context.Context, s Sender, id string, ratio float64) error {
	return s.Send(ctx, Message(id, ratio))
}

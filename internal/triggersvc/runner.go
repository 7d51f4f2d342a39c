package triggersvc

import (
	"os/exec"

	"go.uber.org/zap"
)

// CommandRunner executes a trigger command. The engine never waits for
// completion and failures are not retried.
type CommandRunner interface {
	Run(command string)
}

// ShellRunner runs commands through /bin/sh, detached. Commands come from
// the user's trigger file and are executed verbatim; the rule file is
// trusted configuration.
type ShellRunner struct {
	log *zap.Logger
}

func NewShellRunner(log *zap.Logger) *ShellRunner {
	return &ShellRunner{log: log}
}

func (r *ShellRunner) Run(command string) {
	cmd := exec.Command("/bin/sh", "-c", command)
	if err := cmd.Start(); err != nil {
		r.log.Warn("failed to start trigger command",
			zap.String("command", truncateCommand(command)),
			zap.Error(err),
		)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			r.log.Debug("trigger command exited with error", zap.Error(err))
		}
	}()
}

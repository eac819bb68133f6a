package agent

import (
	"os"
	"os/exec"
	"syscall"
	"time"
)

// waitDelay bounds how long Wait may block on output pipes after the
// subprocess is cancelled or exits.
const waitDelay = 5 * time.Second

// configureKill makes cancellation reach the CLI's whole process tree.
// The CLI spawns children of its own; killing only the direct child
// leaves grandchildren holding the output pipes, and Wait would block
// until the last of them exits. Starting the subprocess in its own
// process group and cancelling with a group-wide SIGKILL takes all of
// them down, and WaitDelay unblocks Wait even if an orphan survives.
func configureKill(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return os.ErrProcessDone
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay
}

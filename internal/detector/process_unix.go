//go:build unix

package detector

import (
	"os/exec"
	"syscall"
)

// killProcessGroup arranca el script en su propio grupo y, al cancelar el
// contexto, mata el grupo entero (workers de torch incluidos).
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

//go:build !windows

package player

import (
	"os/exec"
	"syscall"
)

// sysProcAttr puts the engine in its own process group so helper processes it spawns
// (e.g. a stream demuxer) go away with it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup delivers sig to the engine's whole process group.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, sig)
}

func terminateProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGTERM)
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = signalGroup(cmd, syscall.SIGKILL)
	return cmd.Process.Kill()
}

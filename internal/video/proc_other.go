//go:build !unix

package video

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

package autosync

import (
	"fmt"
	"os"
	"os/exec"
)

// Launcher starts the background sync worker. Launch returns as soon as
// the worker is running; onExit fires once with the worker's outcome.
type Launcher interface {
	Launch(onExit func(err error)) error
}

// ProcessLauncher runs the worker as a detached `ccpet sync` process so it
// outlives the status-line invocation that triggered it.
type ProcessLauncher struct {
	// Args override the worker command line, for tests. Empty means the
	// current executable with a "sync" argument.
	Args []string
}

func (p *ProcessLauncher) Launch(onExit func(err error)) error {
	args := p.Args
	if len(args) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		args = []string{exe, "sync"}
	}

	cmd := exec.Command(args[0], args[1:]...)
	// nil std streams attach the worker to the null device
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start sync worker: %w", err)
	}

	go func() {
		onExit(cmd.Wait())
	}()
	return nil
}

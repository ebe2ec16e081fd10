package update

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// terminatePolls is how many one-second TERM rounds the helper gives
// running Arb processes before escalating to KILL.
const terminatePolls = 20

// HelperLog appends timestamped lines to the helper's log file in the
// update work directory. Logging never blocks the swap: write failures
// are ignored.
type HelperLog struct {
	f *os.File
}

func openHelperLog(workDir string) *HelperLog {
	f, err := os.OpenFile(filepath.Join(workDir, "update.log"),
		os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return &HelperLog{}
	}
	return &HelperLog{f: f}
}

func (l *HelperLog) Printf(format string, args ...any) {
	if l.f == nil {
		return
	}
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"),
		fmt.Sprintf(format, args...))
	_, _ = l.f.WriteString(line)
}

func (l *HelperLog) Close() {
	if l.f != nil {
		_ = l.f.Close()
	}
}

// RunHelper replaces the installed bundle at targetApp with the staged
// bundle at newApp, then relaunches. It runs detached from the session
// that requested the update and must keep working after that process
// exits. On copy failure the previous installation is restored from
// backup.
func RunHelper(targetApp, newApp, workDir string) error {
	log := openHelperLog(workDir)
	defer log.Close()
	log.Printf("start apply update")

	terminateBundleProcesses(targetApp, log)

	backup := fmt.Sprintf("%s.backup.%d", targetApp, time.Now().Unix())
	hadExisting := false
	if _, err := os.Stat(targetApp); err == nil {
		log.Printf("backup existing app")
		if err := os.Rename(targetApp, backup); err != nil {
			log.Printf("backup failed: %v", err)
			return fmt.Errorf("back up existing app: %w", err)
		}
		hadExisting = true
	}

	log.Printf("copy new app")
	if err := CopyDir(newApp, targetApp); err != nil {
		log.Printf("copy failed: %v", err)
		log.Printf("restore from backup")
		_ = os.RemoveAll(targetApp)
		if hadExisting {
			_ = os.Rename(backup, targetApp)
		}
		return fmt.Errorf("install new app: %w", err)
	}

	if runtime.GOOS == "darwin" {
		// Clear quarantine so Gatekeeper does not block the relaunch.
		_ = exec.Command("/usr/bin/xattr", "-cr", targetApp).Run()
	}

	if hadExisting {
		_ = os.RemoveAll(backup)
	}

	log.Printf("refresh shell integration")
	targetCLI := filepath.Join(targetApp, "Contents", "MacOS", "arb")
	_ = exec.Command(targetCLI, "init", "--update-only").Run()

	log.Printf("relaunch app")
	relaunch(targetApp)

	log.Printf("done")
	log.Close()
	_ = os.RemoveAll(workDir)
	return nil
}

// terminateBundleProcesses asks every process running out of targetApp
// to exit, polling for up to terminatePolls seconds, then force-kills
// stragglers. The helper itself runs from the staged bundle so it never
// matches.
func terminateBundleProcesses(targetApp string, log *HelperLog) {
	self := int32(os.Getpid())
	prefix := filepath.Clean(targetApp) + string(os.PathSeparator)

	for i := 0; i < terminatePolls; i++ {
		running := bundleProcesses(prefix, self)
		if len(running) == 0 {
			return
		}
		if i == 0 {
			log.Printf("terminating %d running process(es)", len(running))
		}
		for _, p := range running {
			_ = p.Terminate()
		}
		time.Sleep(time.Second)
	}

	for _, p := range bundleProcesses(prefix, self) {
		log.Printf("force-killing pid %d", p.Pid)
		_ = p.Kill()
	}
}

func bundleProcesses(prefix string, self int32) []*process.Process {
	procs, err := process.Processes()
	if err != nil {
		return nil
	}
	var matched []*process.Process
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		exe, err := p.Exe()
		if err != nil || exe == "" {
			continue
		}
		if strings.HasPrefix(exe, prefix) {
			matched = append(matched, p)
		}
	}
	return matched
}

// relaunch reopens the freshly installed bundle, best effort.
func relaunch(targetApp string) {
	if runtime.GOOS == "darwin" {
		_ = exec.Command("/usr/bin/open", targetApp).Start()
		return
	}
	_ = exec.Command(filepath.Join(targetApp, "Contents", "MacOS", "arb-gui")).Start()
}

//go:build e2e && unix

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
)

var binPath = "greptree_e2e" // built by TestMain

// Keys understood by the interactive view and the plain prompt
const (
	KeyEnter = "\r"
	KeyCtrlC = "\x03"
	KeyQuit  = "q"
	KeyIndex = ":"
	KeyHelp  = "?"
)

// ansiRe strips CSI, OSC, charset and keypad sequences plus carriage returns
var ansiRe = regexp.MustCompile(
	`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|` +
		`(?:\x1b\][^\x07]*\x07)|` +
		`(?:\x1b[\(\)][A-Za-z])|` +
		`(?:\x1b=|\x1b>)|` +
		`\r`,
)

// TUITestFramework runs greptree on a pseudo terminal and records everything it prints
type TUITestFramework struct {
	t         *testing.T
	pty       *os.File
	cmd       *exec.Cmd
	waited    chan struct{}
	workspace string

	mu  sync.Mutex
	out bytes.Buffer
}

// NewTUITest creates a driver; call CreateTestWorkspace before StartApp
func NewTUITest(t *testing.T) *TUITestFramework {
	return &TUITestFramework{t: t}
}

// StartApp launches greptree with args on a 40x120 terminal
func (tf *TUITestFramework) StartApp(args ...string) error {
	tf.cmd = exec.Command(binPath, args...)
	tf.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+tf.workspace,
		"XDG_CONFIG_HOME="+filepath.Join(tf.workspace, ".config"),
	)

	f, err := pty.StartWithSize(tf.cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", binPath, err)
	}
	tf.pty = f

	tf.waited = make(chan struct{})
	go func() {
		_ = tf.cmd.Wait()
		close(tf.waited)
	}()
	go tf.capture()
	return nil
}

func (tf *TUITestFramework) capture() {
	buf := make([]byte, 8192)
	for {
		n, err := tf.pty.Read(buf)
		if n > 0 {
			tf.mu.Lock()
			tf.out.Write(buf[:n])
			tf.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// SendKeys writes keys to the terminal
func (tf *TUITestFramework) SendKeys(keys string) error {
	tf.t.Helper()
	_, err := tf.pty.Write([]byte(keys))
	return err
}

// Enter sends the enter key
func (tf *TUITestFramework) Enter() error { return tf.SendKeys(KeyEnter) }

// SendCtrlC sends an interrupt
func (tf *TUITestFramework) SendCtrlC() error { return tf.SendKeys(KeyCtrlC) }

// Quit sends q
func (tf *TUITestFramework) Quit() error { return tf.SendKeys(KeyQuit) }

// Ready waits for the first frame of the interactive view
func (tf *TUITestFramework) Ready() bool {
	tf.t.Helper()
	return tf.OutputContainsPlain("greptree", 5*time.Second)
}

// SeePlain waits up to three seconds for text in the output
func (tf *TUITestFramework) SeePlain(text string) bool {
	tf.t.Helper()
	return tf.OutputContainsPlain(text, 3*time.Second)
}

// Exited waits for the process to terminate and reports whether it did
func (tf *TUITestFramework) Exited(timeout time.Duration) bool {
	tf.t.Helper()
	select {
	case <-tf.waited:
		return true
	case <-time.After(timeout):
		return false
	}
}

// OutputContainsPlain polls the output, escape sequences removed, for text
func (tf *TUITestFramework) OutputContainsPlain(text string, timeout time.Duration) bool {
	tf.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if strings.Contains(tf.SnapshotPlain(), text) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// SnapshotPlain returns everything printed so far without escape sequences
func (tf *TUITestFramework) SnapshotPlain() string {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return ansiRe.ReplaceAllString(tf.out.String(), "")
}

// Cleanup closes the terminal, kills the process and removes the workspace
func (tf *TUITestFramework) Cleanup() {
	if tf.pty != nil {
		_ = tf.pty.Close()
		tf.pty = nil
	}
	if tf.cmd != nil && tf.cmd.Process != nil {
		_ = tf.cmd.Process.Kill()
		<-tf.waited
		tf.cmd = nil
	}
	if tf.workspace != "" {
		_ = os.RemoveAll(tf.workspace)
		tf.workspace = ""
	}
}

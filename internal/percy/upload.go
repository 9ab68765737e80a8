package percy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"percy-figma/internal/logger"
)

// EnvToken is the variable the Percy CLI reads its project token from.
const EnvToken = "PERCY_TOKEN"

// Result is what the upload tool printed and how it exited.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// UploadToolError reports a spawn failure or a non-zero exit of the upload tool.
// ExitCode is -1 when the process never ran.
type UploadToolError struct {
	Message  string
	ExitCode int
	Err      error
}

func (e *UploadToolError) Error() string {
	return "error executing the upload command: " + e.Message
}

func (e *UploadToolError) Unwrap() error { return e.Err }

// Uploader runs `<command> upload [--strip-extensions] <dir>`.
type Uploader struct {
	command         []string
	env             map[string]string
	stripExtensions bool
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithCommand replaces the default `npx percy` invocation.
func WithCommand(name string, args ...string) Option {
	return func(u *Uploader) { u.command = append([]string{name}, args...) }
}

// WithEnv adds variables to the child process environment only.
func WithEnv(env map[string]string) Option {
	return func(u *Uploader) {
		for k, v := range env {
			u.env[k] = v
		}
	}
}

// WithToken passes token to the child as PERCY_TOKEN. An empty token leaves
// whatever the parent environment has.
func WithToken(token string) Option {
	return func(u *Uploader) {
		if token != "" {
			u.env[EnvToken] = token
		}
	}
}

// WithStripExtensions makes Percy name snapshots without the .png suffix.
func WithStripExtensions(strip bool) Option {
	return func(u *Uploader) { u.stripExtensions = strip }
}

// NewUploader returns an Uploader invoking `npx percy` unless overridden.
func NewUploader(opts ...Option) *Uploader {
	u := &Uploader{
		command: []string{"npx", "percy"},
		env:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Args returns the full argv for uploading dir.
func (u *Uploader) Args(dir string) []string {
	args := append([]string{}, u.command...)
	args = append(args, "upload")
	if u.stripExtensions {
		args = append(args, "--strip-extensions")
	}
	return append(args, dir)
}

// Upload runs the upload tool on dir and waits for it to exit.
// On failure the returned Result still holds any captured output.
func (u *Uploader) Upload(ctx context.Context, dir string) (*Result, error) {
	argv := u.Args(dir)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = u.environ()
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &UploadToolError{
			Message:  fmt.Sprintf("%s exited with status %d", argv[0], res.ExitCode),
			ExitCode: res.ExitCode,
			Err:      err,
		}
	}
	res.ExitCode = -1
	return res, &UploadToolError{Message: fmt.Sprintf("failed to start %s: %v", argv[0], err), ExitCode: -1, Err: err}
}

// environ is the parent environment plus the explicit overrides, sorted for
// stable debug output. The parent process environment is left untouched.
func (u *Uploader) environ() []string {
	env := os.Environ()
	if len(u.env) == 0 {
		return env
	}
	keys := make([]string, 0, len(u.env))
	for k := range u.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+u.env[k])
	}
	return env
}

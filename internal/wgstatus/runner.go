// wg 상태 조회 명령 실행기
//
// 환경변수:
//   - WG_COMMAND: 실행할 바이너리 (default: wg)
//   - WG_INTERFACE: 조회할 인터페이스 (default: all)
//   - WG_TIMEOUT: 실행 제한 시간 (default: 10s)

package wgstatus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrUnavailable - 명령이 없거나, 비정상 종료했거나, 시간 초과
var ErrUnavailable = errors.New("wg status unavailable")

// Runner abstracts command execution so the collector can be tested without
// a real wg binary.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// OSRunner executes commands on the host via os/exec.
type OSRunner struct{}

func (OSRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s timed out: %v", ErrUnavailable, name, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrUnavailable, err.Error(), msg)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return stdout.String(), nil
}

// Reader는 wg show를 실행하고 출력을 파싱한다
type Reader struct {
	runner  Runner
	command string
	iface   string
	timeout time.Duration
}

func NewReader(runner Runner, command, iface string, timeout time.Duration) *Reader {
	if runner == nil {
		runner = OSRunner{}
	}
	if command == "" {
		command = "wg"
	}
	if iface == "" {
		iface = "all"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reader{runner: runner, command: command, iface: iface, timeout: timeout}
}

// Read runs the status tool under the configured timeout and parses its output.
// Any failure, including zero parsed peers, is returned as an error so the
// caller can fall back.
func (r *Reader) Read(ctx context.Context) (peers []Peer, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.runner.Output(ctx, r.command, "show", r.iface)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			peers = nil
			err = fmt.Errorf("%w: %v", ErrParse, rec)
		}
	}()

	peers = Parse(out)
	if len(peers) == 0 {
		return nil, fmt.Errorf("%w: no peers in output", ErrParse)
	}
	return peers, nil
}

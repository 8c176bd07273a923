package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

var (
	// ErrBackendExited reports that the backend process terminated
	// before responding; every pending request fails with it.
	ErrBackendExited = errors.New("backend process exited")

	// ErrRequestTimeout reports that a request outlived the configured
	// timeout without a matching response.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrClientClosed reports a request issued after Shutdown.
	ErrClientClosed = errors.New("client closed")
)

const defaultRequestTimeout = 30 * time.Second

type result struct {
	resp *Response
	err  error
}

// Client drives a long-lived language-service backend over framed
// stdin/stdout pipes. It allocates sequence ids, correlates responses
// to requests by id, and guarantees at most one completion per id.
// Concurrent calls are safe; callers in this tool await each response
// before issuing the next.
type Client struct {
	command string
	args    []string
	timeout time.Duration

	cmd     *exec.Cmd
	writeMu sync.Mutex
	stdin   io.WriteCloser

	mu      sync.Mutex
	seq     int64
	pending map[int64]chan result
	closed  bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. A non-positive duration
// disables the timeout entirely.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client for the given backend command line.
func NewClient(command string, args []string, opts ...Option) *Client {
	c := &Client{
		command: command,
		args:    args,
		timeout: defaultRequestTimeout,
		pending: make(map[int64]chan result),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the backend process and begins consuming its output
// stream.
func (c *Client) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("backend stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("backend stdout: %w", err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start backend %q: %w", c.command, err)
	}

	c.cmd = cmd
	c.attach(stdin, stdout)
	return nil
}

// attach wires the client to an already-established pipe pair. Start
// uses it with the child process pipes; tests use it directly.
func (c *Client) attach(stdin io.WriteCloser, stdout io.Reader) {
	c.stdin = stdin
	go c.readLoop(stdout)
}

// readLoop consumes the backend's output until the stream ends, then
// fails every request still pending.
func (c *Client) readLoop(r io.Reader) {
	var fr framer
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, body := range fr.Feed(buf[:n]) {
				c.dispatch(body)
			}
		}
		if err != nil {
			c.failPending(ErrBackendExited)
			return
		}
	}
}

// dispatch parses one frame body and completes the request it
// correlates to. Unparseable bodies and notifications are dropped.
func (c *Client) dispatch(body []byte) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return
	}
	if resp.Type != "response" {
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.RequestSeq]
	if ok {
		delete(c.pending, resp.RequestSeq)
	}
	c.mu.Unlock()

	if ok {
		ch <- result{resp: &resp}
	}
}

// Call sends a request and blocks until its response arrives, the
// timeout elapses, the context is canceled, or the backend exits.
func (c *Client) Call(ctx context.Context, command string, args any) (*Response, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.seq++
	seq := c.seq
	ch := make(chan result, 1)
	c.pending[seq] = ch
	c.mu.Unlock()

	payload, err := json.Marshal(Request{
		Seq:       seq,
		Type:      "request",
		Command:   command,
		Arguments: args,
	})
	if err != nil {
		c.drop(seq)
		return nil, fmt.Errorf("encode %s request: %w", command, err)
	}
	if err := c.writeFrame(payload); err != nil {
		c.drop(seq)
		return nil, fmt.Errorf("write %s request: %w", command, err)
	}

	var timeoutC <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-timeoutC:
		c.drop(seq)
		return nil, fmt.Errorf("%s request %d: %w", command, seq, ErrRequestTimeout)
	case <-ctx.Done():
		c.drop(seq)
		return nil, ctx.Err()
	}
}

func (c *Client) writeFrame(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := fmt.Fprintf(c.stdin, "Content-Length: %d\r\n\r\n%s", len(payload), payload)
	return err
}

// drop removes a pending entry whose caller is no longer waiting.
func (c *Client) drop(seq int64) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

// failPending completes every outstanding request with err.
func (c *Client) failPending(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]chan result)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- result{err: err}
	}
}

// Shutdown sends a best-effort shutdown command, then forcibly ends
// the backend process. Safe to call more than once.
func (c *Client) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	if c.stdin != nil {
		if payload, err := json.Marshal(Request{Seq: seq, Type: "request", Command: CommandShutdown}); err == nil {
			_ = c.writeFrame(payload)
		}
		_ = c.stdin.Close()
	}

	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}

	c.failPending(ErrClientClosed)
}

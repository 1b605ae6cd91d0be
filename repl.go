package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
)

// lineReader is the part of *readline.Instance that the session uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// session drives a VM interactively: every input line is either a session
// command or program text to load.
type session struct {
	vm      *VM
	lines   lineReader
	out     io.Writer
	logger  *slog.Logger
	prompt  string
	timeout time.Duration
}

var sessionCommands = []string{
	"run",
	"quit",
	"clearall",
	"clearprog",
	"clearstack",
	"debug",
}

func newCompleter() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("debug", readline.PcItem("on"), readline.PcItem("off")),
	}
	for _, cmd := range sessionCommands {
		if cmd != "debug" {
			items = append(items, readline.PcItem(cmd))
		}
	}
	names := append([]string(nil), vmCodeNames[vmCodeSeq:]...)
	sort.Strings(names)
	for _, name := range names {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func newReadline(cfg *Config) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "0" + cfg.Prompt,
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    newCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	return rl, nil
}

// loop reads and handles lines until quit or end of input.
func (s *session) loop(ctx context.Context) error {
	for {
		s.lines.SetPrompt(fmt.Sprintf("%v%v", s.vm.Len(), s.prompt))
		line, err := s.lines.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.handle(ctx, line) {
			return nil
		}
	}
}

// handle processes one input line, returning true to end the session.
func (s *session) handle(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit":
		return len(fields) == 1

	case "run":
		if len(fields) == 1 {
			s.run(ctx)
			return false
		}

	case "clearall":
		if len(fields) == 1 {
			if err := s.vm.Reset(ResetAll); err != nil {
				s.logger.Warn("reset failed", "error", err)
			}
			return false
		}

	case "clearprog":
		if len(fields) == 1 {
			s.vm.Reset(ResetProgram)
			return false
		}

	case "clearstack":
		if len(fields) == 1 {
			s.vm.Reset(ResetValues)
			return false
		}

	case "debug":
		if len(fields) == 2 {
			switch strings.ToLower(fields[1]) {
			case "on":
				s.vm.SetDebug(true)
				return false
			case "off":
				s.vm.SetDebug(false)
				return false
			}
		}
	}

	if err := s.vm.Load(line); err != nil {
		fmt.Fprintf(s.out, "ERR: %v\n", err)
	}
	return false
}

// run runs the loaded program once, under the session timeout; an interrupt
// cancels the run but not the session.
func (s *session) run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	halt, err := s.vm.Run(ctx)
	if err != nil {
		s.logger.Error("run failed", "halt", halt, "error", err)
	}
	switch halt {
	case HaltUnderflow:
		fmt.Fprintln(s.out, "HALTING...")
	case HaltReturn:
		fmt.Fprintln(s.out, "RETURN PAST OUTERMOST CALL")
	}
	s.logger.Debug("halted", "halt", halt, "ip", s.vm.Pointer(),
		"values", s.vm.Values(), "texts", s.vm.Texts())
}

// confirmUnderflow asks whether to continue past a stack underflow.
func (s *session) confirmUnderflow(ip int) bool {
	fmt.Fprintf(s.out, "ERR: STACK UNDERFLOW @%v\n", ip)
	s.lines.SetPrompt("CONTINUE (y/N)? ")
	line, err := s.lines.Readline()
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

// promptReader serves the std object's input from the session line reader,
// so that reads inside a run prompt for input.
type promptReader struct {
	lines  lineReader
	prompt string
	buf    []byte
}

func (pr *promptReader) Read(p []byte) (int, error) {
	if len(pr.buf) == 0 {
		pr.lines.SetPrompt(pr.prompt)
		line, err := pr.lines.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			return 0, io.EOF
		}
		if err != nil {
			return 0, err
		}
		pr.buf = append(append(pr.buf[:0], line...), '\n')
	}
	n := copy(p, pr.buf)
	pr.buf = pr.buf[n:]
	return n, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jcorbin/htrof/internal/logio"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "htrof [program-file]",
		Short: "htrof runs programs written in a Polish notation stack language",
		Long: `htrof loads a program, from a file and then line by line from an
interactive session, and runs it against a value stack and a text stack.

Session commands: run, quit, clearall, clearprog, clearstack, debug on|off.
Every other line is loaded as program text. With --run, or when no program
file is given and stdin is not a terminal, the program runs once instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runMain(cmd.Context(), cfg, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	addConfigFlags(cmd.Flags())
	return cmd
}

func runMain(ctx context.Context, cfg *Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	logger, logCloser, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	if cfg.File != "" {
		logger.Debug("using config file", "path", cfg.File)
	}

	opts := []VMOption{
		WithOutput(stdout),
		WithDebug(cfg.Debug),
		WithDelay(cfg.Delay),
	}
	if cfg.Trace {
		logf := logio.Leveledf(logger, slog.LevelDebug)
		opts = append(opts, WithLogf(logf))
		if cfg.Debug {
			opts = append(opts, WithDebugOutput(&logio.Writer{Logf: logf}))
		}
	}

	if cfg.Run {
		if len(args) == 0 {
			return fmt.Errorf("--run needs a program file")
		}
		vm := New(append(opts, WithInput(stdin))...)
		defer vm.Close()
		if err := loadProgramFile(vm, args[0]); err != nil {
			return err
		}
		return runOnce(ctx, vm, cfg, logger)
	}

	if len(args) == 0 && !isTerminal(stdin) {
		vm := New(opts...)
		defer vm.Close()
		if err := vm.LoadFile("<stdin>", stdin); err != nil {
			return err
		}
		return runOnce(ctx, vm, cfg, logger)
	}

	rl, err := newReadline(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	s := &session{
		lines:   rl,
		out:     stdout,
		logger:  logger,
		prompt:  cfg.Prompt,
		timeout: cfg.Timeout,
	}
	s.vm = New(append(opts,
		WithInput(&promptReader{lines: rl, prompt: "? "}),
		WithUnderflowHandler(s.confirmUnderflow),
	)...)
	defer s.vm.Close()

	if len(args) > 0 {
		if err := loadProgramFile(s.vm, args[0]); err != nil {
			fmt.Fprintf(stdout, "ERR: %v\n", err)
		}
	}
	return s.loop(ctx)
}

// isTerminal reports whether r is an interactive terminal; without a program
// file, anything else is read as the program and run once.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func loadProgramFile(vm *VM, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return vm.LoadFile(path, f)
}

// runOnce runs vm without a session; any underflow aborts the run.
func runOnce(ctx context.Context, vm *VM, cfg *Config, logger *slog.Logger) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	halt, err := vm.Run(ctx)
	logger.Debug("halted", "halt", halt, "ip", vm.Pointer())
	if err != nil {
		return err
	}
	if halt == HaltUnderflow {
		return fmt.Errorf("stack underflow @%v", vm.Pointer())
	}
	return nil
}

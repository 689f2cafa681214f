package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kilt"
)

var (
	escapeTimeout time.Duration
	noBanner      bool
)

var rootCmd = &cobra.Command{
	Use:   "kilt [file]",
	Short: "Minimal full-screen text viewer",
	Long: `Kilt is a minimal screen-oriented text viewer. It places the terminal
into raw mode, shows the first line of the given file, and lets you move
the cursor around the viewport. Press Ctrl-Q to quit.`,
	Args:          cobra.MaximumNArgs(1),
	Version:       kilt.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().DurationVar(&escapeTimeout, "escape-timeout", 0,
		"wait for escape-sequence continuation bytes (overrides config)")
	rootCmd.Flags().BoolVar(&noBanner, "no-banner", false,
		"suppress the version banner on the empty screen")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := kilt.LoadConfig()
	if err != nil {
		// A broken config file should not keep the viewer from starting.
		fmt.Fprintf(os.Stderr, "kilt: config: %v\n", err)
	}

	session, err := kilt.NewSession(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	if escapeTimeout > 0 {
		session.SetEscapeTimeout(escapeTimeout)
	} else if cfg.EscapeTimeoutMS > 0 {
		session.SetEscapeTimeout(time.Duration(cfg.EscapeTimeoutMS) * time.Millisecond)
	}

	if err := session.EnterRawMode(); err != nil {
		return err
	}
	defer func() {
		if rerr := session.Restore(); rerr != nil {
			fmt.Fprintf(os.Stderr, "kilt: %v\n", rerr)
		}
	}()

	size, err := kilt.ResolveSize(session.Fd(), session.Writer(), session.Input())
	if err != nil {
		return fail(session, err)
	}

	ed := kilt.NewEditor(session, size)
	ed.SetHideBanner(noBanner || cfg.HideBanner)

	if len(args) == 1 {
		if err := ed.Open(args[0]); err != nil {
			return fail(session, err)
		}
	}

	if err := ed.Run(); err != nil {
		return fail(session, err)
	}
	return nil
}

// fail clears the screen before the error surfaces, so the diagnostic is
// not printed into the middle of a half-drawn frame.
func fail(s *kilt.Session, err error) error {
	io.WriteString(s.Writer(), "\x1b[2J\x1b[H")
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "kilt: %v\n", err)
		os.Exit(1)
	}
}

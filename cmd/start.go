package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/runner"
	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/beanboi7/chyp8/emu/screen/window"
	"github.com/faiface/pixel/pixelgl"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var startCmd = &cobra.Command{
	Use:   "start `path/ROM`",
	Short: "load and start the Emulator",
	Args:  cobra.ExactArgs(1),
	RunE:  Start,
}

// chyp8 start 'path/to/ROM' -r 60 -c 700
func Start(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	rom, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}
	logger.Info("Starting emulator",
		log.String("rom", args[0]),
		log.String("display", cfg.Display))

	ctx := app.Context()
	if cfg.Display == displayTerminal {
		return runTerminal(ctx, logger, cfg, rom)
	}

	// pixelgl needs the main thread, the window lives inside Run
	var runErr error
	pixelgl.Run(func() {
		runErr = runWindow(ctx, logger, cfg, rom)
	})
	return runErr
}

func runWindow(ctx context.Context, logger *log.Logger, cfg Config, rom []byte) error {
	win, err := window.New(cfg.Scale)
	if err != nil {
		return err
	}
	defer win.Destroy()

	return play(ctx, logger, cfg, rom, win)
}

func runTerminal(ctx context.Context, logger *log.Logger, cfg Config, rom []byte) error {
	terminal := screen.NewTerminal(logger, os.Stdin, os.Stdout)
	if err := terminal.Start(); err != nil {
		return fmt.Errorf("starting terminal display: %w", err)
	}
	defer func() {
		if err := terminal.Stop(); err != nil {
			logger.Error("Restoring terminal failed", log.Err(err))
		}
	}()

	return play(ctx, logger, cfg, rom, terminal)
}

// play loads the ROM into a new interpreter and runs it on frontend until
// the frontend closes, the context is cancelled or the program faults.
func play(ctx context.Context, logger *log.Logger, cfg Config, rom []byte, frontend runner.Frontend) error {
	emu := cpu.NewEMU(logger, frontend, frontend,
		cpu.WithStrictOpcodes(cfg.Strict),
		cpu.WithTrace(cfg.Trace))
	if err := emu.LoadROM(rom); err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}

	r, err := runner.New(logger, emu, frontend, runner.Config{
		Clock:   cfg.Clock,
		Refresh: cfg.Refresh,
	})
	if err != nil {
		return err
	}

	err = r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("Emulation stopped", log.Hex("pc", emu.PC()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("emulation halted: %w", err)
	}
	return nil
}

func init() {
	flags := startCmd.Flags()
	flags.IntP(keyClock, "c", 700, "instructions executed per second")
	flags.IntP(keyRefresh, "r", 60, "sets the refresh rate of the display in Hz")
	flags.StringP(keyDisplay, "d", displayWindow, "display to use: window or terminal")
	flags.Float64(keyScale, 10, "window size of a single CHIP-8 pixel")
	flags.Bool(keyStrict, false, "fail on undefined opcodes instead of skipping them")
	flags.Bool(keyTrace, false, "log every executed instruction, needs --debug")

	for _, key := range []string{keyClock, keyRefresh, keyDisplay, keyScale, keyStrict, keyTrace} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(key)))
	}
}

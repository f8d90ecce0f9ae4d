// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.bug.st/serial/enumerator"

	"github.com/LeeJunHeon/dcconverter/converter"
	"github.com/LeeJunHeon/dcconverter/internal/config"
	"github.com/LeeJunHeon/dcconverter/internal/sim"
)

func main() {
	configFile := pflag.String("config", "", "Path to config file")
	device := pflag.String("port", "", "Serial device (overrides config)")
	slaveAddr := pflag.Int("slave", -1, "Slave address 0-62 (overrides config)")
	voltage := pflag.Float64("voltage", 0, "Set point voltage in volts (start command)")
	current := pflag.Float64("current", 0, "Set point current in amps (start command)")
	pflag.Usage = usage
	pflag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *slaveAddr >= 0 {
		cfg.SlaveAddress = *slaveAddr
	}

	setupLogger(cfg.Log)

	if pflag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	command := pflag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "status":
		err = withConverter(ctx, cfg, runStatus)
	case "start":
		if !pflag.Lookup("voltage").Changed || !pflag.Lookup("current").Changed {
			fmt.Println("start requires --voltage and --current")
			os.Exit(2)
		}
		err = withConverter(ctx, cfg, func(ctx context.Context, c *converter.Converter) error {
			if err := c.StartOutput(ctx, *voltage, *current); err != nil {
				return err
			}
			fmt.Printf("output on: %.3f V, %.3f A\n", *voltage, *current)
			return nil
		})
	case "stop":
		err = withConverter(ctx, cfg, func(ctx context.Context, c *converter.Converter) error {
			if err := c.StopOutput(ctx); err != nil {
				return err
			}
			fmt.Println("output off")
			return nil
		})
	case "watch":
		err = withConverter(ctx, cfg, func(ctx context.Context, c *converter.Converter) error {
			return runWatch(ctx, c, cfg.Poll.Interval)
		})
	case "ports":
		err = runPorts()
	case "sim":
		err = runSim(ctx, cfg)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", command, "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: dcconverter [flags] <command>

Commands:
  status    read one status snapshot from the module
  start     set V/I and switch the output on (--voltage, --current)
  stop      switch the output off
  watch     poll status at poll.interval until interrupted
  ports     list serial ports on this machine
  sim       serve a simulated module on sim.device

Flags:
`)
	pflag.PrintDefaults()
}

// withConverter connects to the configured module for the duration of one
// command.
func withConverter(ctx context.Context, cfg *config.Config, fn func(context.Context, *converter.Converter) error) error {
	if cfg.Serial.Device == "" {
		return fmt.Errorf("no serial device configured: set serial.device or pass --port")
	}

	c := converter.New(cfg.Serial)
	if err := c.Connect(ctx, cfg.Serial.Device, cfg.SlaveAddress); err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

func runStatus(ctx context.Context, c *converter.Converter) error {
	st, err := c.ReadStatus(ctx)
	if err != nil {
		return err
	}
	printStatus(st)
	return nil
}

// runWatch polls the module until the context is cancelled. A failed
// poll is reported and the cadence continues; whether to give up is the
// operator's call, not the driver's.
func runWatch(ctx context.Context, c *converter.Converter, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st, err := c.ReadStatus(ctx)
			if err != nil {
				slog.Error("poll failed", "err", err)
				continue
			}
			printStatus(st)
		}
	}
}

func printStatus(st *converter.Status) {
	power := "off"
	if st.PowerOn {
		power = "on"
	}
	fmt.Printf("power=%s voltage=%.3fV current=%.3fA alarms=0x%08X\n",
		power, st.VoltageV, st.CurrentA, st.AlarmMask)
	for _, a := range st.ActiveAlarms {
		fmt.Printf("  alarm %s\n", a)
	}
}

func runPorts() error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return fmt.Errorf("enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return nil
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Printf("%s\tUSB %s:%s %s\n", p.Name, p.VID, p.PID, p.Product)
			continue
		}
		fmt.Println(p.Name)
	}
	return nil
}

func runSim(ctx context.Context, cfg *config.Config) error {
	if cfg.Sim.Device == "" {
		return fmt.Errorf("no simulator device configured: set sim.device")
	}

	var storage sim.Storage
	switch strings.ToLower(cfg.Sim.Persistence.Type) {
	case "mmap":
		slog.Info("simulated module with mmap persistence", "path", cfg.Sim.Persistence.Path)
		storage = sim.NewMmapStorage(cfg.Sim.Persistence.Path)
	default:
		slog.Info("simulated module with memory storage (non-persistent)")
		storage = sim.NewMemoryStorage()
	}

	device, err := sim.NewDevice(storage)
	if err != nil {
		return err
	}
	defer device.Close()

	serialCfg := cfg.Serial
	serialCfg.Device = cfg.Sim.Device

	server := sim.NewServer(serialCfg, byte(cfg.Sim.SlaveAddress), sim.NewSlave(device))
	return server.Start(ctx)
}

func setupLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Failed to open log file, falling back to stdout: %v\n", err)
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"

	"github.com/zeusync/ecsrx/internal/config"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
	"github.com/zeusync/ecsrx/internal/injector"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute returns the process exit code. Deferred work, profile flushing
// included, has completed by the time it returns.
func execute(args []string) int {
	flags := flag.NewFlagSet("ecsrx", flag.ContinueOnError)
	configPath := flags.String("config", "", "session file (.yaml, .yml or .toml)")
	profileMode := flags.String("profile", "", "write a cpu or mem profile")
	profileDir := flags.String("profile-path", ".", "directory receiving the profile")
	ticks := flags.Int("ticks", 0, "number of system updates to run after spawning")
	tickRate := flags.Duration("tick-rate", 50*time.Millisecond, "interval between system updates")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profileDir), profile.NoShutdownHook, profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(*profileDir), profile.NoShutdownHook, profile.Quiet).Stop()
	default:
		fmt.Println("Error: unknown profile mode:", *profileMode)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *ticks, *tickRate); err != nil {
		fmt.Println("Error:", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, configPath string, ticks int, tickRate time.Duration) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	s, cleanup, err := injector.InitializeSession(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() {
		if err := s.Close(); err != nil {
			s.Logger().Error("session close failed", log.Error(err))
		}
	}()

	if err = s.Spawn(ctx); err != nil {
		return err
	}

	if ticks > 0 {
		ticker := time.NewTicker(tickRate)
		defer ticker.Stop()
		for i := 0; i < ticks; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			if err = s.Tick(ctx, tickRate.Seconds()); err != nil {
				s.Logger().Warn("tick failed", log.Int("tick", i), log.Error(err))
			}
		}
	}

	for _, r := range s.Report() {
		s.Logger().Info("group",
			log.String("name", r.Name),
			log.String("token", r.Token),
			log.Int("count", r.Count),
		)
		fmt.Printf("%-20s %-24s %d %v\n", r.Name, r.Token, r.Count, r.Entities)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mexan-workshop/mexanbot/internal/backup"
	"github.com/mexan-workshop/mexanbot/internal/bot"
	"github.com/mexan-workshop/mexanbot/internal/config"
	"github.com/mexan-workshop/mexanbot/internal/dialog"
	"github.com/mexan-workshop/mexanbot/internal/session"
	"github.com/mexan-workshop/mexanbot/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mexanbot",
	Short: "mexanbot - bicycle workshop assistant",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and backup scheduler",
	RunE:  runServe,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize config and data files",
	RunE:  runInit,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mexanbot status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(serveCmd, initCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := setupLogger(cfg.Log)

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token not set. Run 'mexanbot init' and edit %s, or set MEXANBOT_TELEGRAM_TOKEN", config.ConfigPath())
	}

	st := store.New(cfg.Data.Dir)
	engine := dialog.NewEngine(st, session.NewStore(), cfg.Sources, log)

	svc, err := bot.NewService(cfg.Telegram, engine, log)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	backups := backup.New(cfg.Backup, st.Paths(), log)
	if err := backups.Start(); err != nil {
		return fmt.Errorf("start backups: %w", err)
	}
	defer backups.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}

	log.Info().Str("data", cfg.Data.Dir).Msg("mexanbot running")
	<-ctx.Done()
	return svc.Stop()
}

func runInit(cmd *cobra.Command, args []string) error {
	cfgPath := config.ConfigPath()
	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(cfg.Data.Dir)
	standards, err := st.StandardBreakdowns()
	if err != nil {
		return err
	}
	if standards == nil {
		if err := st.SaveStandardBreakdowns(defaultStandardBreakdowns); err != nil {
			return fmt.Errorf("write standard breakdowns: %w", err)
		}
		fmt.Println("  Created: standard breakdown list")
	}

	fmt.Printf("Data dir ready: %s\n", cfg.Data.Dir)
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set the bot token and allowed user ids\n", cfgPath)
	fmt.Println("  2. Or set MEXANBOT_TELEGRAM_TOKEN / MEXANBOT_ALLOW_FROM")
	fmt.Println("  3. Run 'mexanbot serve'")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Data dir: %s\n", cfg.Data.Dir)
	fmt.Printf("Token: %s\n", maskToken(cfg.Telegram.Token))
	fmt.Printf("Allowed users: %d\n", len(cfg.Telegram.AllowFrom))
	fmt.Printf("Sources: %d configured\n", len(cfg.Sources))
	fmt.Printf("Backups: enabled=%v keep=%d\n", cfg.Backup.Enabled, cfg.Backup.Keep)

	st := store.New(cfg.Data.Dir)
	if active, err := st.ListActive(); err == nil {
		fmt.Printf("Active repairs: %d\n", len(active))
	}
	if archived, err := st.ListArchived(store.SourceAll); err == nil {
		fmt.Printf("Archived repairs: %d\n", len(archived))
	}
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return "not set"
	}
	if len(token) <= 8 {
		return "set"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

var defaultStandardBreakdowns = []string{
	"Flat tire",
	"Brake adjustment",
	"Chain replacement",
	"Controller diagnostics",
	"Battery diagnostics",
	"Motor wheel service",
	"Throttle replacement",
	"Wiring repair",
}

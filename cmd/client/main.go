package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/godivatech/contentsync/internal/client/api"
	"github.com/godivatech/contentsync/internal/client/cli"
	"github.com/godivatech/contentsync/internal/client/executor"
	"github.com/godivatech/contentsync/internal/client/feed"
	"github.com/godivatech/contentsync/internal/client/iocli"
	"github.com/godivatech/contentsync/internal/client/netmon"
	"github.com/godivatech/contentsync/internal/client/optimistic"
	"github.com/godivatech/contentsync/internal/client/queue"
	"github.com/godivatech/contentsync/internal/client/storage/boltdb"
	syncsvc "github.com/godivatech/contentsync/internal/client/sync"
	"github.com/godivatech/contentsync/internal/client/view"
	"github.com/godivatech/contentsync/internal/clock"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "contentsync-client.db", "Path to local database")
	collectionsFlag := flag.String("collections", "projects,blogPosts,services",
		"Comma-separated collections to watch")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	// Контекст с обработкой сигналов: нужен команде watch
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Создаем API клиент
	apiClient := api.NewClient(*serverURL)

	// Начальное состояние сети определяем одним ping; дальше монитор
	// держит статус сам
	online := true
	if _, err := apiClient.Ping(ctx); err != nil {
		online = false
	}

	monitor := netmon.New(online, apiClient.Ping, netmon.DefaultConfig(), logger)
	// Start блокирует до остановки монитора, цикл замеров живёт в
	// собственной горутине
	go monitor.Start(ctx)
	defer monitor.Stop()

	clk := clock.New()

	q, err := queue.New(ctx, boltStorage, clk, queue.DefaultConfig(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to restore offline queue: %v\n", err)
		os.Exit(1)
	}

	store := view.NewStore()
	exec := executor.New(monitor, executor.DefaultConfig(), logger)
	controller := optimistic.New(apiClient, exec, q, store, monitor, clk, logger)

	reconciler := feed.NewReconciler(apiClient, exec, store, clk, feed.DefaultDebounce, logger)
	defer reconciler.Stop()
	controller.SetResyncScheduler(reconciler)

	collections := strings.Split(*collectionsFlag, ",")
	listener, err := feed.NewListener(*serverURL, reconciler, collections, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server URL: %v\n", err)
		os.Exit(1)
	}

	// Потерянные операции репортим пользователю: молча отброшенное
	// изменение хуже честного предупреждения
	onLost := func(opIDs []string) {
		fmt.Fprintf(os.Stderr, "Warning: %d change(s) could not be synced and were dropped: %v\n",
			len(opIDs), opIDs)
	}

	syncService := syncsvc.NewService(q, controller.Replay, monitor, boltStorage, onLost, logger)
	unsubscribe := syncService.Start(ctx)
	defer unsubscribe()

	// Выполняем команду
	c := cli.New(controller, reconciler, syncService, monitor, listener, iocli.NewStdio())
	c.Run(ctx, command, args[1:])
}

func printVersion() {
	fmt.Printf("ContentSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

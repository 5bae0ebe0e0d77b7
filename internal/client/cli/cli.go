package cli

import (
	"fmt"

	"github.com/godivatech/contentsync/internal/client/feed"
	"github.com/godivatech/contentsync/internal/client/iocli"
	"github.com/godivatech/contentsync/internal/client/netmon"
	"github.com/godivatech/contentsync/internal/client/optimistic"
	"github.com/godivatech/contentsync/internal/client/sync"
)

type Cli struct {
	controller  *optimistic.Controller
	reconciler  *feed.Reconciler
	syncService sync.Service
	monitor     *netmon.Monitor
	listener    *feed.Listener
	io          iocli.IO
}

// New собирает CLI поверх уже сконструированных сервисов.
// listener может быть nil — тогда команда watch недоступна.
func New(
	controller *optimistic.Controller,
	reconciler *feed.Reconciler,
	syncService sync.Service,
	monitor *netmon.Monitor,
	listener *feed.Listener,
	io iocli.IO,
) *Cli {
	return &Cli{
		controller:  controller,
		reconciler:  reconciler,
		syncService: syncService,
		monitor:     monitor,
		listener:    listener,
		io:          io,
	}
}

func PrintUsage() {
	fmt.Println("ContentSync Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  contentsync [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version              Show version information")
	fmt.Println("  --server URL           Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH              Path to local database (default: contentsync-client.db)")
	fmt.Println("  --collections LIST     Comma-separated collections to watch (default: projects,blogPosts,services)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list <collection>                   List records in a collection")
	fmt.Println("  get <collection> <id>               Show one record")
	fmt.Println("  create <collection> <json>          Create a record (JSON object payload)")
	fmt.Println("  update <collection> <id> <json>     Apply a partial update")
	fmt.Println("  delete <collection> <id>            Delete a record")
	fmt.Println("  drain                               Replay the offline queue now")
	fmt.Println("  status                              Show network and queue status")
	fmt.Println("  watch                               Follow the server change feed")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  contentsync list projects")
	fmt.Println("  contentsync create projects '{\"title\":\"New site\"}'")
	fmt.Println("  contentsync update projects 42 '{\"title\":\"Renamed\"}'")
	fmt.Println("  contentsync delete projects b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5")
	fmt.Println("  contentsync --server https://example.com watch")
}

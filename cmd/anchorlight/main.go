package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anchorlight/anchorlight/internal/mcp"
	"github.com/anchorlight/anchorlight/internal/storage"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	dbPath := flag.String("db", os.Getenv("ANCHORLIGHT_DB_PATH"), "highlight database directory (default ~/.anchorlight)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("anchorlight %s (%s build, driver %s)\n", version, storage.BuildMode, storage.DriverName)
		return
	}

	// stdout carries the MCP protocol; everything else goes to stderr.
	log.SetOutput(os.Stderr)

	srv, err := mcp.NewServer(*dbPath)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("anchorlight %s listening on stdio (driver %s)", version, storage.DriverName)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	select {
	case <-ctx.Done():
		log.Println("signal received, shutting down")
	case err := <-done:
		if err != nil {
			log.Fatalf("server exited: %v", err)
		}
		log.Println("server stopped")
	}
}

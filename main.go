package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/ephemeral-chat/modules/api"
	"github.com/example/ephemeral-chat/modules/broadcast"
	"github.com/example/ephemeral-chat/modules/rooms"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Ephemeral Chat - room coordination and broadcast ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	roomsModule := rooms.NewModule(app.Logger())
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule(app.Logger())

	// Inject the broadcast hub into the API module
	// (the hub is not exposed via ServiceContainer).
	apiModule.SetHub(broadcastModule.GetHub())

	// Order: independent modules first, then modules with dependencies
	// - rooms: core domain (room registry + coordination services)
	// - broadcast: event consumer (WebSocket fan-out)
	// - api: driving adapter (Fiber HTTP/WebSocket server, depends on rooms)
	app.Register(roomsModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Rooms live in memory only and dissolve the moment they empty.")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                - Health check")
	log.Println("  POST   /api/v1/rooms/code     - Generate a fresh room code")
	log.Println("  GET    /api/v1/rooms/:code    - Peek at a room's member count")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Inbound events:  create-room, join-room, send-message, typing, leave-room")
	log.Println("  Outbound events: room-created, room-error, message-error,")
	log.Println("                   receive-message, user-typing, room-users-update")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

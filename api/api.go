package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// APIServer wraps the Fiber app and its listen address
type APIServer struct {
	app           *fiber.App
	listenAddress string
}

// NewAPIServer creates the Fiber server
func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:   "hakwon-api",
			BodyLimit: 25 << 20, // Room for worksheet PDF uploads
		}),
		listenAddress: listenAddress,
	}
}

// GetEngine returns the underlying Fiber app
func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run starts listening
func (s *APIServer) Run() error {
	log.Println("Starting API Server")
	log.Printf("Listening on %s", s.listenAddress)

	return s.app.Listen(s.listenAddress)
}

// Shutdown gracefully stops the server
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

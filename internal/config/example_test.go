package config_test

import (
	"fmt"
	"log"

	"github.com/aaronalt/gcc-lulc/internal/config"
)

func ExampleLoad() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Access configuration values
	fmt.Printf("Server: %s\n", cfg.Server.Address())
	fmt.Printf("Catalog source: %s\n", cfg.Catalog.Source)
	fmt.Printf("Cell size: %.0f\n", cfg.Pipeline.CellSize)
	fmt.Printf("Max scenes: %d\n", cfg.Pipeline.MaxScenes)

	// Output:
	// Server: 0.0.0.0:8080
	// Catalog source: dir
	// Cell size: 30
	// Max scenes: 24
}

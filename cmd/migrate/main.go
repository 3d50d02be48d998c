package main

import (
	"log"

	"kasseapparat/internal/config"
	"kasseapparat/internal/database"
)

// Applies the purchase cache schema without starting the till.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewConnection(cfg.Cache.Path)
	if err != nil {
		log.Fatal("Failed to open purchase cache:", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.DB).RunMigrations(); err != nil {
		log.Fatal("Migration failed:", err)
	}

	log.Println("Purchase cache schema is up to date")
}

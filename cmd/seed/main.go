package main

import (
	"subtrack/internal/config" // Custom import path (Config)
	"subtrack/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
)

// Main entry point for demo data seeding
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Database Source Name (DSN) for MySQL connection
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// Load the demo account
	if err := db.Seed(conn); err != nil {
		logrus.Fatalf("seeding failed: %v", err) // Log fatal error if seeding fails
	}
}

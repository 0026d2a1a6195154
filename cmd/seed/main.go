package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
	"github.com/macaicedo13/Ecommerce-api-test/internal/repository"
)

type sampleProduct struct {
	name        string
	description string
	price       string
	stock       int
}

var sampleCatalog = []sampleProduct{
	{`Laptop Pro 15"`, "High-performance laptop with 16GB RAM and 512GB SSD", "1299.99", 25},
	{"Wireless Mouse", "Ergonomic wireless mouse with precision tracking", "29.99", 100},
	{"Mechanical Keyboard", "RGB backlit mechanical keyboard with blue switches", "89.99", 50},
	{"USB-C Hub", "7-in-1 USB-C hub with HDMI, USB 3.0, and SD card reader", "45.99", 75},
	{`27" 4K Monitor`, "4K UHD monitor with IPS panel and 60Hz refresh rate", "399.99", 30},
	{"Webcam HD 1080p", "HD webcam with autofocus and built-in microphone", "59.99", 60},
	{"Desk Lamp LED", "Adjustable LED desk lamp with touch control", "34.99", 40},
	{"External SSD 1TB", "Portable external SSD with USB 3.1 Gen 2 interface", "149.99", 45},
	{"Headphones Wireless", "Noise-cancelling Bluetooth headphones with 30h battery", "179.99", 35},
	{"Phone Stand", "Aluminum phone stand with adjustable angle", "19.99", 200},
	{"Cable Organizer Set", "Cable management kit with clips and sleeves", "12.99", 150},
	{"Portable Charger 20000mAh", "High-capacity power bank with fast charging", "49.99", 80},
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	creds := &repository.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "ecommerce"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./migrations"),
	}

	store, err := repository.NewPostgresStore(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	for _, sample := range sampleCatalog {
		product := &domain.Product{
			Name:        sample.name,
			Description: sample.description,
			Price:       decimal.RequireFromString(sample.price),
			Stock:       sample.stock,
		}
		if err := store.CreateProduct(ctx, product); err != nil {
			log.Fatalf("Failed to seed product %q: %v", sample.name, err)
		}
		log.Printf("seeded product %d: %s", product.ID, product.Name)
	}

	log.Printf("seed complete, %d products", len(sampleCatalog))
}

// seed populates a fresh database with the default operator accounts,
// a small demo catalog and the store settings row. Safe to re-run:
// existing rows are left alone.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedUser struct {
	name     string
	email    string
	password string
	role     models.UserRole
}

type seedProduct struct {
	name         string
	barcode      string
	price        string
	quantity     int
	category     string
	location     string
	reorderLevel int
}

var seedUsers = []seedUser{
	{"admin", "admin@pos.local", "admin123", models.UserRoleAdmin},
	{"cashier1", "cashier1@pos.local", "cashier123", models.UserRoleCashier},
	{"manager", "manager@pos.local", "manager123", models.UserRoleManager},
}

var seedProducts = []seedProduct{
	{"Whole Milk 1L", "4006381333931", "2.49", 50, "Dairy", "Aisle 1", 10},
	{"White Bread", "4006381333948", "1.89", 30, "Bakery", "Aisle 2", 8},
	{"Eggs 12pk", "4006381333955", "3.99", 40, "Dairy", "Aisle 1", 12},
	{"Bananas 1kg", "4006381333962", "1.29", 60, "Produce", "Front", 15},
	{"Ground Coffee 500g", "4006381333979", "6.99", 25, "Beverages", "Aisle 4", 5},
	{"Orange Juice 1L", "4006381333986", "2.99", 35, "Beverages", "Aisle 4", 10},
	{"Pasta 500g", "4006381333993", "1.49", 80, "Pantry", "Aisle 3", 20},
	{"Toilet Paper 4pk", "4006381334006", "4.49", 45, "Household", "Aisle 6", 10},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := models.MigrateTable(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	if err := models.EnsureStoreSettings(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure store settings: %v\n", err)
		os.Exit(1)
	}

	for _, su := range seedUsers {
		var existing models.User
		err := db.WithContext(ctx).Where("name = ?", su.name).First(&existing).Error
		if err == nil {
			fmt.Printf("user %q already exists, skipping\n", su.name)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user %q: %v\n", su.name, err)
			os.Exit(1)
		}

		hashed, err := utils.HashPassword(su.password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Name:     su.name,
			Email:    su.email,
			Password: string(hashed),
			Role:     su.role,
			IsActive: true,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create user %q: %v\n", su.name, err)
			os.Exit(1)
		}
		fmt.Printf("created user %q (%s)\n", su.name, su.role)
	}

	// Catalog is created through CreateProduct so opening stock gets its
	// stock_in ledger entry like any other receipt.
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	for _, sp := range seedProducts {
		var existing models.Product
		err := db.WithContext(ctx).Where("barcode = ?", sp.barcode).First(&existing).Error
		if err == nil {
			fmt.Printf("product %q already exists, skipping\n", sp.name)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup product %q: %v\n", sp.name, err)
			os.Exit(1)
		}

		price, err := decimal.NewFromString(sp.price)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad seed price %q: %v\n", sp.price, err)
			os.Exit(1)
		}
		input := models.NewProduct{
			Name:         sp.name,
			Barcode:      sp.barcode,
			Price:        price,
			Quantity:     sp.quantity,
			Category:     sp.category,
			Location:     sp.location,
			ReorderLevel: sp.reorderLevel,
		}
		if _, err := models.CreateProduct(ctx, &input); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create product %q: %v\n", sp.name, err)
			os.Exit(1)
		}
		fmt.Printf("created product %q (qty %d)\n", sp.name, sp.quantity)
	}

	fmt.Println("seed complete")
}

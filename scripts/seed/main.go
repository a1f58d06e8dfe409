// Seeds a development database with one store, a cashier terminal key
// and a small catalog. Prints the terminal key to use against the API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillward/tillward/internal/app"
	"github.com/tillward/tillward/internal/platform/db"
)

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		slog.Default().Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var storeID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO stores (name, owner_phone, receipt_prefix, tax_enabled, tax_kind, tax_value,
		                    loyalty_enabled, earn_rate, redemption_rate, min_redemption_points, low_stock_threshold)
		VALUES ('Corner Shop', '08030009999', 'TRX', TRUE, 'percentage', 7.5, TRUE, 0.1, 0.05, 100, 5)
		RETURNING id`).Scan(&storeID)
	if err != nil {
		slog.Default().Error("seed store", slog.Any("error", err))
		os.Exit(1)
	}

	var employeeID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO employees (store_id, name, role) VALUES ($1, 'Demo Cashier', 'cashier')
		RETURNING id`, storeID).Scan(&employeeID)
	if err != nil {
		slog.Default().Error("seed employee", slog.Any("error", err))
		os.Exit(1)
	}

	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		slog.Default().Error("hash terminal secret", slog.Any("error", err))
		os.Exit(1)
	}

	var keyID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO terminal_keys (store_id, employee_id, key_hash) VALUES ($1, $2, $3)
		RETURNING id`, storeID, employeeID, string(hash)).Scan(&keyID)
	if err != nil {
		slog.Default().Error("seed terminal key", slog.Any("error", err))
		os.Exit(1)
	}

	products := []struct {
		sku   string
		name  string
		price float64
		cost  float64
		stock int64
	}{
		{"COLA-50", "Cola 50cl", 300, 220, 48},
		{"BREAD-L", "Loaf of bread", 900, 650, 15},
		{"MILK-1L", "Milk 1L", 1200, 980, 24},
	}
	for _, p := range products {
		_, err = pool.Exec(ctx, `
			INSERT INTO products (store_id, sku, name, price, cost_price, stock)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (store_id, sku) DO NOTHING`,
			storeID, p.sku, p.name, p.price, p.cost, p.stock)
		if err != nil {
			slog.Default().Error("seed product", slog.String("sku", p.sku), slog.Any("error", err))
			os.Exit(1)
		}
	}

	fmt.Printf("store_id=%d employee_id=%d\n", storeID, employeeID)
	fmt.Printf("terminal key: %d.%s\n", keyID, secret)
}

// ledger-verify recomputes each product's stock from the inventory
// movement ledger and reports rows whose stored quantity drifted.
// With -fix, the stored quantity is rewritten to the ledger-derived
// value. The ledger is the source of truth, so the correction does
// not itself append a movement.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/ledger-verify [-fix]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
)

type drift struct {
	ProductId    int    `gorm:"column:product_id"`
	Name         string `gorm:"column:name"`
	Stored       int    `gorm:"column:stored"`
	LedgerDerive int    `gorm:"column:ledger_derived"`
}

func main() {
	fix := flag.Bool("fix", false, "rewrite drifted quantities to the ledger-derived value")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var drifts []drift
	err := db.WithContext(ctx).Raw(`
SELECT
    p.id AS product_id,
    p.name AS name,
    p.quantity AS stored,
    COALESCE(SUM(m.quantity), 0) AS ledger_derived
FROM products p
LEFT JOIN inventory_movements m ON m.product_id = p.id
GROUP BY p.id, p.name, p.quantity
HAVING p.quantity <> COALESCE(SUM(m.quantity), 0)
ORDER BY p.id
`).Scan(&drifts).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "drift query failed: %v\n", err)
		os.Exit(1)
	}

	if len(drifts) == 0 {
		fmt.Println("ok: all product quantities match the ledger")
		return
	}

	for _, d := range drifts {
		fmt.Printf("drift: product=%d %q stored=%d ledger=%d\n", d.ProductId, d.Name, d.Stored, d.LedgerDerive)
	}
	if !*fix {
		fmt.Printf("%d product(s) drifted (re-run with -fix to correct)\n", len(drifts))
		os.Exit(2)
	}

	for _, d := range drifts {
		if err := db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", d.ProductId).
			Update("quantity", d.LedgerDerive).Error; err != nil {
			fmt.Fprintf(os.Stderr, "fix failed for product %d: %v\n", d.ProductId, err)
			os.Exit(1)
		}
		fmt.Printf("fixed: product=%d %d -> %d\n", d.ProductId, d.Stored, d.LedgerDerive)
	}
	fmt.Printf("fixed %d product(s)\n", len(drifts))
}

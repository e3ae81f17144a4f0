package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

// setupCheckoutDB starts a throwaway MySQL, connects the global DB and
// migrates the schema. Returns a context carrying an operator identity.
func setupCheckoutDB(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "pos_test")

	config.ConnectDatabaseWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test Cashier")
	return ctx
}

func mustCreateProduct(t *testing.T, ctx context.Context, name, barcode, price string, qty int) *models.Product {
	t.Helper()
	p, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:     name,
		Barcode:  barcode,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return p
}

func TestProcessSaleDecrementsStockAndWritesLedger(t *testing.T) {
	ctx := setupCheckoutDB(t)
	db := config.GetDB()

	milk := mustCreateProduct(t, ctx, "Milk", "40063813000011", "2.50", 10)
	bread := mustCreateProduct(t, ctx, "Bread", "40063813000028", "1.99", 5)

	sale, err := models.ProcessSale(ctx, &models.NewSale{
		Items: []models.NewSaleItem{
			{ProductId: milk.ID, Quantity: 2},
			{ProductId: bread.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	if !strings.HasPrefix(sale.TransactionId, "TXN-") {
		t.Fatalf("unexpected transaction id %q", sale.TransactionId)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("expected 2 sale items, got %d", len(sale.Items))
	}

	// Default tax rate is 0.16: subtotal 6.99 -> tax 1.1184 -> total 8.1084.
	if sale.Subtotal.Cmp(decimal.RequireFromString("6.99")) != 0 {
		t.Fatalf("subtotal = %s, want 6.99", sale.Subtotal)
	}
	if sale.Tax.Cmp(decimal.RequireFromString("1.1184")) != 0 {
		t.Fatalf("tax = %s, want 1.1184", sale.Tax)
	}
	if sale.Total.Cmp(decimal.RequireFromString("8.1084")) != 0 {
		t.Fatalf("total = %s, want 8.1084", sale.Total)
	}

	after, err := models.GetProduct(ctx, milk.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if after.Quantity != 8 {
		t.Fatalf("milk quantity = %d, want 8", after.Quantity)
	}

	// Ledger: one sale entry per product, and every row must balance.
	var movements []models.InventoryMovement
	if err := db.WithContext(ctx).
		Where("product_id = ? AND kind = ?", milk.ID, models.MovementKindSale).
		Find(&movements).Error; err != nil {
		t.Fatalf("fetch movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 sale movement for milk, got %d", len(movements))
	}
	m := movements[0]
	if m.Quantity != -2 || m.PreviousStock != 10 || m.NewStock != 8 {
		t.Fatalf("movement mismatch: %+v", m)
	}
	if m.PreviousStock+m.Quantity != m.NewStock {
		t.Fatalf("ledger row does not balance: %+v", m)
	}
	if m.Reason != "Sale - "+sale.TransactionId {
		t.Fatalf("movement reason = %q", m.Reason)
	}
}

func TestProcessSaleMergesDuplicateCartLines(t *testing.T) {
	ctx := setupCheckoutDB(t)
	db := config.GetDB()

	soap := mustCreateProduct(t, ctx, "Soap", "40063813000035", "1.00", 10)

	sale, err := models.ProcessSale(ctx, &models.NewSale{
		Items: []models.NewSaleItem{
			{ProductId: soap.ID, Quantity: 2},
			{ProductId: soap.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if len(sale.Items) != 1 || sale.Items[0].Quantity != 5 {
		t.Fatalf("expected one merged line of qty 5, got %+v", sale.Items)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.InventoryMovement{}).
		Where("product_id = ? AND kind = ?", soap.ID, models.MovementKindSale).
		Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single merged ledger entry, got %d", count)
	}
}

func TestProcessSaleInsufficientStockRollsBackWholeCart(t *testing.T) {
	ctx := setupCheckoutDB(t)
	db := config.GetDB()

	milk := mustCreateProduct(t, ctx, "Milk", "40063813000042", "2.50", 10)
	bread := mustCreateProduct(t, ctx, "Bread", "40063813000059", "1.99", 3)

	_, err := models.ProcessSale(ctx, &models.NewSale{
		Items: []models.NewSaleItem{
			{ProductId: milk.ID, Quantity: 2},
			{ProductId: bread.ID, Quantity: 5},
		},
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	var apiErr *models.ApiError
	if !errors.As(err, &apiErr) || apiErr.Kind != models.ErrorKindInsufficientStock {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}
	if !strings.Contains(apiErr.Detail, "Bread") ||
		!strings.Contains(apiErr.Detail, "Available: 3") ||
		!strings.Contains(apiErr.Detail, "Required: 5") {
		t.Fatalf("unexpected detail %q", apiErr.Detail)
	}

	// The milk decrement from the same cart must have been rolled back.
	milkAfter, _ := models.GetProduct(ctx, milk.ID)
	if milkAfter.Quantity != 10 {
		t.Fatalf("milk quantity = %d, want 10 (rollback)", milkAfter.Quantity)
	}

	var saleCount int64
	if err := db.WithContext(ctx).Model(&models.Sale{}).Count(&saleCount).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if saleCount != 0 {
		t.Fatalf("expected no sales persisted, got %d", saleCount)
	}
	var movementCount int64
	if err := db.WithContext(ctx).Model(&models.InventoryMovement{}).
		Where("kind = ?", models.MovementKindSale).
		Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movementCount != 0 {
		t.Fatalf("expected no sale ledger entries, got %d", movementCount)
	}
}

func TestProcessSaleUnknownProduct(t *testing.T) {
	ctx := setupCheckoutDB(t)

	_, err := models.ProcessSale(ctx, &models.NewSale{
		Items: []models.NewSaleItem{{ProductId: 99999, Quantity: 1}},
	})
	var apiErr *models.ApiError
	if !errors.As(err, &apiErr) || apiErr.Kind != models.ErrorKindProductNotFound {
		t.Fatalf("expected ProductNotFound, got %v", err)
	}
}

// Two cashiers fight over the last unit: exactly one sale must win and
// the quantity must never go negative.
func TestProcessSaleConcurrentLastUnit(t *testing.T) {
	ctx := setupCheckoutDB(t)
	db := config.GetDB()

	last := mustCreateProduct(t, ctx, "Last Unit", "40063813000066", "9.99", 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = models.ProcessSale(ctx, &models.NewSale{
				Items: []models.NewSaleItem{{ProductId: last.ID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	var successes, stockErrs int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		var apiErr *models.ApiError
		if errors.As(err, &apiErr) && apiErr.Kind == models.ErrorKindInsufficientStock {
			stockErrs++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || stockErrs != 1 {
		t.Fatalf("expected 1 success and 1 InsufficientStock, got %d / %d", successes, stockErrs)
	}

	after, _ := models.GetProduct(ctx, last.ID)
	if after.Quantity != 0 {
		t.Fatalf("quantity = %d, want 0", after.Quantity)
	}
	var saleCount int64
	if err := db.WithContext(ctx).Model(&models.Sale{}).Count(&saleCount).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if saleCount != 1 {
		t.Fatalf("expected exactly one sale, got %d", saleCount)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("pos-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=pos_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}

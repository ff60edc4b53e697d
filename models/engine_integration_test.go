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

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/models"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/shopspring/decimal"
)

// End-to-end engine flow against real MySQL + Redis: stock deduction on
// placement, rollback on insufficiency, diff-based edits, settlement bill
// numbering and the purchase-bill duplicate guard.
func TestEngineFlow_StockOrderSettlement(t *testing.T) {
	ctx := setupIntegration(t)

	stock, err := models.AddStock(ctx, &models.NewStockEntry{
		StockName: "Chicken",
		Unit:      "kg",
		Qty:       decimal.RequireFromString("10"),
	})
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if !stock.Qty.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("stock qty = %s, want 10", stock.Qty)
	}

	item, err := models.CreateMenuItem(ctx, &models.NewMenuItem{
		Name:  "Chicken",
		Unit:  "kg",
		Price: decimal.RequireFromString("250"),
	})
	if err != nil {
		t.Fatalf("CreateMenuItem: %v", err)
	}
	if item.StockRecordId == nil || *item.StockRecordId != stock.ID {
		t.Fatalf("menu item not linked to stock record: %+v", item.StockRecordId)
	}

	order, err := models.PlaceOrder(ctx, &models.NewOrder{
		TableNo: "T1",
		Details: []models.NewOrderDetail{{MenuItemId: item.ID, Qty: decimal.RequireFromString("2")}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	assertStockQty(t, ctx, "Chicken", "8")

	// insufficient placement must leave stock untouched
	_, err = models.PlaceOrder(ctx, &models.NewOrder{
		TableNo: "T2",
		Details: []models.NewOrderDetail{{MenuItemId: item.ID, Qty: decimal.RequireFromString("9")}},
	})
	var insufficient *utils.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	assertStockQty(t, ctx, "Chicken", "8")

	// edit 2 -> 5 deducts only the difference
	order, err = models.UpdateOrder(ctx, order.ID, &models.NewOrder{
		TableNo: "T1",
		Details: []models.NewOrderDetail{{MenuItemId: item.ID, Qty: decimal.RequireFromString("5")}},
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	assertStockQty(t, ctx, "Chicken", "5")
	if !order.TotalAmount.Equal(decimal.RequireFromString("1250")) {
		t.Fatalf("total = %s, want 1250", order.TotalAmount)
	}

	settled, breakdown, err := models.SettleOrderPaid(ctx, order.ID, &models.SettleOrderInput{
		Discount:      decimal.RequireFromString("50"),
		PaymentMethod: models.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("SettleOrderPaid: %v", err)
	}
	if settled.Status != models.OrderStatusPaid {
		t.Fatalf("status = %s, want Paid", settled.Status)
	}
	if settled.BillNo == nil || *settled.BillNo != 1 {
		t.Fatalf("bill no = %v, want 1", settled.BillNo)
	}
	if !breakdown.AfterDiscount.Equal(decimal.RequireFromString("1200")) {
		t.Fatalf("after discount = %s, want 1200", breakdown.AfterDiscount)
	}

	// settled orders reject edit and delete
	if _, err := models.UpdateOrder(ctx, settled.ID, &models.NewOrder{
		Details: []models.NewOrderDetail{{MenuItemId: item.ID, Qty: decimal.RequireFromString("1")}},
	}); err == nil {
		t.Fatal("expected edit of settled order to fail")
	}
	if err := models.DeleteOrder(ctx, settled.ID); err == nil {
		t.Fatal("expected delete of settled order to fail")
	}
}

func TestEngineFlow_ConcurrentSettlementBillNumbers(t *testing.T) {
	ctx := setupIntegration(t)

	item, err := models.CreateMenuItem(ctx, &models.NewMenuItem{
		Name:  "Tea",
		Price: decimal.RequireFromString("50"),
	})
	if err != nil {
		t.Fatalf("CreateMenuItem: %v", err)
	}

	const n = 5
	orderIds := make([]int, 0, n)
	for i := 0; i < n; i++ {
		order, err := models.PlaceOrder(ctx, &models.NewOrder{
			TableNo: fmt.Sprintf("T%d", i),
			Details: []models.NewOrderDetail{{MenuItemId: item.ID, Qty: decimal.RequireFromString("1")}},
		})
		if err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
		orderIds = append(orderIds, order.ID)
	}

	var mu sync.Mutex
	billNos := make(map[int]bool)
	var wg sync.WaitGroup
	for _, id := range orderIds {
		wg.Add(1)
		go func(orderId int) {
			defer wg.Done()
			// the per-restaurant lock rejects concurrent settlements; retry
			var conflict *utils.ConflictError
			for attempt := 0; attempt < 50; attempt++ {
				settled, _, err := models.SettleOrderPaid(ctx, orderId, &models.SettleOrderInput{
					PaymentMethod: models.PaymentMethodCash,
				})
				if err == nil {
					mu.Lock()
					billNos[*settled.BillNo] = true
					mu.Unlock()
					return
				}
				if !errors.As(err, &conflict) {
					t.Errorf("settle order %d: %v", orderId, err)
					return
				}
				time.Sleep(100 * time.Millisecond)
			}
			t.Errorf("settle order %d: never obtained lock", orderId)
		}(id)
	}
	wg.Wait()

	if len(billNos) != n {
		t.Fatalf("got %d distinct bill numbers, want %d: %v", len(billNos), n, billNos)
	}
	for i := 1; i <= n; i++ {
		if !billNos[i] {
			t.Fatalf("bill number %d missing (gap or duplicate): %v", i, billNos)
		}
	}
}

func TestEngineFlow_PurchaseBillDuplicateAndReverse(t *testing.T) {
	ctx := setupIntegration(t)

	newBill := func(billNo string, qty string) *models.NewPurchaseBill {
		return &models.NewPurchaseBill{
			SupplierName: "Everest Traders",
			BillNo:       billNo,
			BillDate:     time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
			Details: []models.NewPurchaseBillDetail{{
				StockName: "Rice",
				Unit:      "kg",
				Qty:       decimal.RequireFromString(qty),
				Rate:      decimal.RequireFromString("80"),
			}},
		}
	}

	bill, err := models.CreatePurchaseBill(ctx, newBill("PB-1", "20"))
	if err != nil {
		t.Fatalf("CreatePurchaseBill: %v", err)
	}
	assertStockQty(t, ctx, "Rice", "20")

	// same supplier + bill number + fiscal year is rejected
	_, err = models.CreatePurchaseBill(ctx, newBill("PB-1", "5"))
	var duplicate *utils.DuplicateBillError
	if !errors.As(err, &duplicate) {
		t.Fatalf("expected DuplicateBillError, got %v", err)
	}

	// editing the bill itself must not trip the duplicate check
	edit := newBill("PB-1", "15")
	edit.Reason = "vendor corrected the delivered quantity"
	updated, err := models.UpdatePurchaseBill(ctx, bill.ID, edit)
	if err != nil {
		t.Fatalf("UpdatePurchaseBill: %v", err)
	}
	if !updated.TotalAmount.Equal(decimal.RequireFromString("1200")) {
		t.Fatalf("total = %s, want 1200", updated.TotalAmount)
	}
	assertStockQty(t, ctx, "Rice", "15")

	// edit without a reason is rejected
	noReason := newBill("PB-1", "10")
	if _, err := models.UpdatePurchaseBill(ctx, bill.ID, noReason); err == nil {
		t.Fatal("expected edit without reason to fail")
	}

	if err := models.DeletePurchaseBill(ctx, bill.ID, "entered against the wrong restaurant"); err != nil {
		t.Fatalf("DeletePurchaseBill: %v", err)
	}
	assertStockQty(t, ctx, "Rice", "0")
}

func TestEngineFlow_CreditSettlementFullyPaidLeavesDueUnchanged(t *testing.T) {
	ctx := setupIntegration(t)

	item, err := models.CreateMenuItem(ctx, &models.NewMenuItem{
		Name:  "Momo",
		Price: decimal.RequireFromString("150"),
	})
	if err != nil {
		t.Fatalf("CreateMenuItem: %v", err)
	}
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Ram"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	order, err := models.PlaceOrder(ctx, &models.NewOrder{
		CustomerId: &customer.ID,
		Details:    []models.NewOrderDetail{{MenuItemId: item.ID, Qty: decimal.RequireFromString("2")}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	settled, breakdown, err := models.SettleOrderCredit(ctx, order.ID, &models.SettleOrderInput{
		PaymentMethod: models.PaymentMethodCash,
		CustomerId:    &customer.ID,
		PaidAmount:    decimal.RequireFromString("300"),
	})
	if err != nil {
		t.Fatalf("SettleOrderCredit: %v", err)
	}
	if !breakdown.NetTotal.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("net = %s, want 300", breakdown.NetTotal)
	}

	// a credit settlement goes on the customer ledger, not the bill counter
	if settled.BillNo != nil {
		t.Fatalf("credit settlement got bill no %d, want none", *settled.BillNo)
	}
	restaurantId, _ := utils.GetRestaurantIdFromContext(ctx)
	var counters int64
	if err := config.GetDB().Model(&models.BillCounter{}).
		Where("restaurant_id = ?", restaurantId).Count(&counters).Error; err != nil {
		t.Fatalf("count bill counters: %v", err)
	}
	if counters != 0 {
		t.Fatalf("bill counter rows = %d, want 0 after credit settlement", counters)
	}

	got, err := models.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if !got.Due.IsZero() {
		t.Fatalf("due = %s, want 0 after fully paid credit settlement", got.Due)
	}

	rebuilt, err := models.RecomputeCustomerBalance(ctx, customer.ID)
	if err != nil {
		t.Fatalf("RecomputeCustomerBalance: %v", err)
	}
	if !rebuilt.Due.Equal(got.Due) || !rebuilt.Consumed.Equal(got.Consumed) || !rebuilt.Paid.Equal(got.Paid) {
		t.Fatalf("recompute drifted from cache: %+v vs %+v", rebuilt, got)
	}
}

func assertStockQty(t *testing.T, ctx context.Context, stockName, want string) {
	t.Helper()
	records, err := models.GetStockRecords(ctx)
	if err != nil {
		t.Fatalf("GetStockRecords: %v", err)
	}
	for _, r := range records {
		if r.StockName == stockName {
			if !r.Qty.Equal(decimal.RequireFromString(want)) {
				t.Fatalf("stock %q qty = %s, want %s", stockName, r.Qty, want)
			}
			return
		}
	}
	t.Fatalf("stock %q not found", stockName)
}

// setupIntegration boots MySQL + Redis in docker and returns a context
// scoped to a fresh restaurant.
func setupIntegration(t *testing.T) context.Context {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "restro_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetCorrelationIdInContext(ctx, "test")

	restaurant, err := models.CreateRestaurant(ctx, &models.NewRestaurant{
		Name: fmt.Sprintf("Test Restaurant %d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	return utils.SetRestaurantIdInContext(ctx, restaurant.ID)
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("restro-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("restro-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=restro_test",
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

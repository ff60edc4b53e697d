package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/models"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/joho/godotenv"
)

// Rebuilds the cached customer balances from the transaction ledger. Run
// after a bug or a manual DB edit leaves the caches out of sync.
func main() {
	restaurantID := flag.String("restaurant-id", "", "Required: restaurant id (uuid)")
	customerID := flag.Int("customer-id", 0, "Optional: rebuild only one customer. If 0, rebuilds all customers of the restaurant.")
	flag.Parse()

	if strings.TrimSpace(*restaurantID) == "" {
		fmt.Fprintln(os.Stderr, "-restaurant-id is required")
		os.Exit(1)
	}

	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	ctx := context.Background()
	ctx = utils.SetRestaurantIdInContext(ctx, strings.TrimSpace(*restaurantID))
	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUserNameInContext(ctx, "CustomerBalanceRebuild")

	ids := make([]int, 0)
	if *customerID > 0 {
		ids = append(ids, *customerID)
	} else {
		customers, err := models.GetCustomers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list customers: %v\n", err)
			os.Exit(1)
		}
		for _, c := range customers {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		fmt.Println("no customers to rebuild")
		return
	}

	failures := 0
	for _, id := range ids {
		customer, err := models.RecomputeCustomerBalance(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "customer %d: %v\n", id, err)
			failures++
			continue
		}
		fmt.Printf("customer %d (%s): consumed=%s paid=%s due=%s\n",
			customer.ID, customer.Name, customer.Consumed, customer.Paid, customer.Due)
	}
	if failures > 0 {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/catalogsheet"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

const usage = "Usage: go run ./cmd/catalogtool <export|import> <xlsx_file_path>"

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}
	command, filePath := os.Args[1], os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	api, err := shopapi.NewClient(shopapi.Config{
		BaseURL: cfg.ShopAPI.BaseURL,
		Timeout: cfg.ShopAPI.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create shop API client:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	username, password := os.Getenv("SHOP_USERNAME"), os.Getenv("SHOP_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("SHOP_USERNAME and SHOP_PASSWORD must be set")
	}
	pair, err := api.ObtainToken(ctx, username, password)
	if err != nil {
		log.Fatal("Login failed:", shopapi.Message(err))
	}
	api = api.WithToken(pair.Access)

	switch command {
	case "export":
		err = exportProducts(ctx, api, filePath)
	case "import":
		err = importProducts(ctx, api, filePath)
	default:
		log.Fatal(usage)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func exportProducts(ctx context.Context, api *shopapi.Client, filePath string) error {
	products, err := api.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filePath, err)
	}
	defer f.Close()

	if err := catalogsheet.Write(f, products); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	fmt.Printf("Exported %d products to %s\n", len(products), filePath)
	return nil
}

func importProducts(ctx context.Context, api *shopapi.Client, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, rowErrs, err := catalogsheet.Read(f)
	if err != nil {
		return err
	}
	for _, re := range rowErrs {
		fmt.Printf("Skipping row %d: %s\n", re.Row, re.Reason)
	}

	fmt.Printf("Total products to import: %d\n", len(products))
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return nil
	}

	var created, updated, failed int
	for _, p := range products {
		input := shopapi.ProductInputFrom(p)
		if p.ID != 0 {
			_, err = api.UpdateProduct(ctx, p.ID, input)
		} else {
			_, err = api.CreateProduct(ctx, input)
		}
		if err != nil {
			fmt.Printf("Failed to save %q: %s\n", p.Name, shopapi.Message(err))
			failed++
			continue
		}
		if p.ID != 0 {
			updated++
		} else {
			created++
		}
	}

	fmt.Println("Import completed!")
	fmt.Printf("Created: %d, updated: %d, failed: %d\n", created, updated, failed)
	return nil
}

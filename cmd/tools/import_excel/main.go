package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/database"
	"asset-inventory-api/internal/inventory"
	"asset-inventory-api/pkg/importer"
)

const usage = "Usage: import_excel --file=path.xlsx --resource=hw-asset [--mapping=configs/mapping/inventory.yaml] [--sheet=...] [--dry-run]"

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var filePath, resource, mappingPath, sheet string
	dryRun := false

	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "--file=") {
			filePath = strings.TrimPrefix(arg, "--file=")
		} else if strings.HasPrefix(arg, "--resource=") {
			resource = strings.TrimPrefix(arg, "--resource=")
		} else if strings.HasPrefix(arg, "--mapping=") {
			mappingPath = strings.TrimPrefix(arg, "--mapping=")
		} else if strings.HasPrefix(arg, "--sheet=") {
			sheet = strings.TrimPrefix(arg, "--sheet=")
		} else if arg == "--dry-run" {
			dryRun = true
		}
	}

	if filePath == "" || resource == "" {
		fmt.Println("Error: file and resource are required")
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	opts, err := cfg.DatabaseOptions()
	if err != nil {
		log.Fatalf("Invalid database settings: %v", err)
	}

	var mapping *importer.Mapping
	if mappingPath == "" {
		mappingPath = cfg.ImportMapping
	}
	if mappingPath != "" {
		if mapping, err = importer.LoadMapping(mappingPath); err != nil {
			log.Fatalf("Failed to load mapping: %v", err)
		}
	}

	ctx := context.Background()
	db, err := database.Open(ctx, opts)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	target, ok := inventory.NewCatalog(db, cfg.MoveAtomic).Target(resource)
	if !ok {
		log.Fatalf("Unknown resource %q", resource)
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("Failed to open Excel file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing from %s into %s (dry_run=%v)\n", filePath, resource, dryRun)
	fmt.Println("=" + strings.Repeat("=", 60))

	summary, err := importer.ImportExcel(ctx, target, file, importer.Options{
		Resource:  resource,
		Sheet:     sheet,
		Mapping:   mapping,
		DryRun:    dryRun,
		MaxErrors: 50,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Total inserted: %d\n", summary.Inserted)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Sheets) > 0 {
		fmt.Println("\nSheet Details:")
		for _, sheet := range summary.Sheets {
			fmt.Printf("  %s: inserted=%d, skipped=%d, errors=%d\n",
				sheet.Name, sheet.Inserted, sheet.Skipped, sheet.Errors)

			if len(sheet.Samples) > 0 {
				fmt.Printf("    Error samples:\n")
				for _, sample := range sheet.Samples {
					fmt.Printf("      Row %d: %s\n", sample.Row, sample.Message)
				}
			}
		}
	}
}

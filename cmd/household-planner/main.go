package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"household-planner/internal/app"
	"household-planner/internal/config"
	"household-planner/internal/database"
	"household-planner/internal/mealplan"
	"household-planner/internal/server"
	"household-planner/internal/shopping"
	"household-planner/internal/units"
)

func main() {
	ctx := context.Background()

	// Missing .env is fine; real deployments set the variables directly.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	planRepo := mealplan.NewRepository(db.SQL)
	listRepo := shopping.NewRepository(db.SQL)

	consolidator := shopping.NewConsolidator(units.NewConverter())
	generator := shopping.NewGenerator(planRepo, listRepo, consolidator)
	updater := shopping.NewItemUpdater(listRepo)

	application := app.NewApp(planRepo, listRepo, generator, updater)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		srv := server.New(application)
		log.Printf("Listening on %s", cfg.HTTPAddr)
		if err := srv.Run(cfg.HTTPAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case "generate":
		generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		household := generateCmd.Int64("household", 0, "Household ID")
		planID := generateCmd.Int64("plan", 0, "Meal plan ID")
		name := generateCmd.String("name", "", "Shopping list name")
		start := generateCmd.String("start", "", "Start date (YYYY-MM-DD), inclusive")
		end := generateCmd.String("end", "", "End date (YYYY-MM-DD), inclusive")
		generateCmd.Parse(os.Args[2:])

		if *household == 0 || *planID == 0 {
			log.Fatal("Both -household and -plan are required")
		}

		startAt, err := parseDateFlag(*start)
		if err != nil {
			log.Fatalf("Invalid -start: %v", err)
		}
		endAt, err := parseDateFlag(*end)
		if err != nil {
			log.Fatalf("Invalid -end: %v", err)
		}

		list, err := application.GenerateShoppingList(ctx, *household, *planID, *name, startAt, endAt)
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		printList(list)
	case "regenerate":
		regenCmd := flag.NewFlagSet("regenerate", flag.ExitOnError)
		household := regenCmd.Int64("household", 0, "Household ID")
		listID := regenCmd.Int64("list", 0, "Shopping list ID")
		regenCmd.Parse(os.Args[2:])

		if *household == 0 || *listID == 0 {
			log.Fatal("Both -household and -list are required")
		}

		list, err := application.RegenerateShoppingList(ctx, *household, *listID)
		if err != nil {
			log.Fatalf("Regeneration failed: %v", err)
		}
		printList(list)
	case "seed":
		if err := seed(ctx, application); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		fmt.Println("Seeded demo household 1 with a meal plan and two recipes.")
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printList(list *shopping.ShoppingList) {
	fmt.Printf("Shopping list %d: %s (%d items)\n", list.ID, list.Name, len(list.Items))
	for _, item := range list.Items {
		unit := item.Unit
		if unit == "" {
			unit = "x"
		}
		checked := " "
		if item.IsChecked {
			checked = "x"
		}
		fmt.Printf("  [%s] %s %s %s (%s)\n", checked, item.Quantity.String(), unit, item.Name, item.Category)
	}
}

// seed populates a small demo dataset so the HTTP API has something to
// serve on a fresh database.
func seed(ctx context.Context, application *app.App) error {
	qty := func(v string) decimal.NullDecimal {
		d, err := decimal.NewFromString(v)
		if err != nil {
			panic(err)
		}
		return decimal.NewNullDecimal(d)
	}

	pancakes := &mealplan.Recipe{
		HouseholdID: 1,
		Name:        "Pancakes",
		Ingredients: []mealplan.Ingredient{
			{Name: "flour", Quantity: qty("2"), Unit: "cups", Category: "Baking"},
			{Name: "milk", Quantity: qty("1.5"), Unit: "cups", Category: "Dairy"},
			{Name: "eggs", Quantity: qty("2"), Unit: "pieces", Category: "Dairy"},
		},
	}
	if err := application.CreateRecipe(ctx, pancakes); err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	omelette := &mealplan.Recipe{
		HouseholdID: 1,
		Name:        "Omelette",
		Ingredients: []mealplan.Ingredient{
			{Name: "eggs", Quantity: qty("3"), Unit: "pieces", Category: "Dairy"},
			{Name: "milk", Quantity: qty("100"), Unit: "ml", Category: "Dairy"},
			{Name: "fresh chives", Quantity: qty("1"), Unit: "bunch", Category: "Produce"},
		},
	}
	if err := application.CreateRecipe(ctx, omelette); err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	plan := &mealplan.MealPlan{
		HouseholdID: 1,
		Name:        "Demo week",
		StartDate:   monday,
		EndDate:     monday.AddDate(0, 0, 6),
	}
	if err := application.CreateMealPlan(ctx, plan); err != nil {
		return fmt.Errorf("failed to create meal plan: %w", err)
	}

	entries := []mealplan.Entry{
		{Date: monday, RecipeID: &pancakes.ID},
		{Date: monday.AddDate(0, 0, 1), RecipeID: &omelette.ID},
		{Date: monday.AddDate(0, 0, 2), CustomMealName: "Takeout pizza"},
	}
	for i := range entries {
		if err := application.AddMealPlanEntry(ctx, 1, plan.ID, &entries[i]); err != nil {
			return fmt.Errorf("failed to add meal plan entry: %w", err)
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: household-planner <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  serve                          Start the HTTP API server")
	fmt.Println("  generate -household N -plan N  Generate a shopping list from a meal plan")
	fmt.Println("  regenerate -household N -list N  Regenerate a shopping list in place")
	fmt.Println("  seed                           Insert a small demo dataset")
}

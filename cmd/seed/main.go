package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/varnwear/storefront/internal/accounts"
	"github.com/varnwear/storefront/internal/catalog"
	"github.com/varnwear/storefront/internal/domain"
	"github.com/varnwear/storefront/internal/telemetry"
)

var sampleProducts = []domain.Product{
	{
		Name:        "Assassins Creed T-Shirt",
		Images:      []string{"assets/images/assasins_creed.jpeg"},
		Price:       1299,
		Sizes:       []string{"S", "M", "L", "XL"},
		Stock:       25,
		Category:    "Gaming",
		Description: "Premium Assassins Creed themed t-shirt with high-quality print.",
	},
	{
		Name:        "Beige Plain T-Shirt",
		Images:      []string{"assets/images/beige_plain.jpeg", "assets/images/beige_plain2.jpeg"},
		Price:       899,
		Sizes:       []string{"S", "M", "L", "XL"},
		Stock:       40,
		Category:    "Casual",
		Description: "Classic beige plain t-shirt for everyday wear.",
	},
	{
		Name:        "BTS Band T-Shirt",
		Images:      []string{"assets/images/bts_band.jpeg", "assets/images/bts_band2.jpeg", "assets/images/bts_band3.jpeg", "assets/images/bts_band4.jpeg"},
		Price:       1499,
		Sizes:       []string{"S", "M", "L", "XL"},
		Stock:       30,
		Category:    "Music",
		Description: "Official BTS band merchandise t-shirt.",
	},
	{
		Name:        "COD Ghost T-Shirt",
		Images:      []string{"assets/images/cod_ghost.jpeg", "assets/images/cod_ghost2.jpeg"},
		Price:       1399,
		Sizes:       []string{"M", "L", "XL"},
		Stock:       20,
		Category:    "Gaming",
		Description: "Call of Duty Ghost themed gaming t-shirt.",
	},
	{
		Name:        "Galactic Blitz T-Shirt",
		Images:      []string{"assets/images/galatic_blitz.jpeg"},
		Price:       1199,
		Sizes:       []string{"S", "M", "L", "XL"},
		Stock:       15,
		Category:    "Graphic",
		Description: "Futuristic galactic design t-shirt.",
	},
	{
		Name:        "Mister T-Shirt",
		Images:      []string{"assets/images/mister.jpeg", "assets/images/mister2.jpeg"},
		Price:       999,
		Sizes:       []string{"S", "M", "L", "XL"},
		Stock:       35,
		Category:    "Casual",
		Description: "Stylish casual t-shirt with modern design.",
	},
	{
		Name:        "MotoGP Racing T-Shirt",
		Images:      []string{"assets/images/moto_gp.jpeg"},
		Price:       1599,
		Sizes:       []string{"M", "L", "XL"},
		Stock:       18,
		Category:    "Sports",
		Description: "Official MotoGP racing merchandise.",
	},
	{
		Name:        "Predator T-Shirt",
		Images:      []string{"assets/images/predator.jpeg"},
		Price:       1299,
		Sizes:       []string{"S", "M", "L", "XL"},
		Stock:       22,
		Category:    "Movies",
		Description: "Predator movie themed t-shirt.",
	},
	{
		Name:        "Red Dead Redemption T-Shirt",
		Images:      []string{"assets/images/red_dead_redemption.jpeg"},
		Price:       1499,
		Sizes:       []string{"M", "L", "XL"},
		Stock:       12,
		Category:    "Gaming",
		Description: "Red Dead Redemption 2 gaming t-shirt.",
	},
	{
		Name:        "Shivaji Maharaj T-Shirt",
		Images:      []string{"assets/images/shivaji_maharaj.jpeg", "assets/images/shivaji_maharaj2.jpeg"},
		Price:       1199,
		Sizes:       []string{"S", "M", "L", "XL", "XXL"},
		Stock:       50,
		Category:    "Cultural",
		Description: "Tribute to Chhatrapati Shivaji Maharaj with premium print.",
	},
}

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM products"); err != nil {
		logger.Error("failed to clear products", "error", err)
		os.Exit(1)
	}
	logger.Info("cleared existing products")

	catalogRepo := catalog.NewRepository(db)
	for i := range sampleProducts {
		if err := catalogRepo.Create(ctx, &sampleProducts[i]); err != nil {
			logger.Error("failed to seed product", "error", err, "name", sampleProducts[i].Name)
			os.Exit(1)
		}
	}
	logger.Info("seeded products", "count", len(sampleProducts))

	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminUsername == "" || adminPassword == "" {
		logger.Info("ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	accountsRepo := accounts.NewRepository(db)
	existing, err := accountsRepo.GetAdminByUsername(ctx, adminUsername)
	if err != nil {
		logger.Error("failed to look up admin", "error", err)
		os.Exit(1)
	}
	if existing != nil {
		logger.Info("admin already exists", "username", adminUsername)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), 10)
	if err != nil {
		logger.Error("failed to hash admin password", "error", err)
		os.Exit(1)
	}

	admin := &domain.Admin{
		Username:     adminUsername,
		PasswordHash: string(hash),
		Email:        os.Getenv("ADMIN_EMAIL"),
	}
	if err := accountsRepo.CreateAdmin(ctx, admin); err != nil {
		logger.Error("failed to create admin", "error", err)
		os.Exit(1)
	}
	logger.Info("seeded admin", "username", adminUsername)
}

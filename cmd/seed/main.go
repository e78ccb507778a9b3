package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesa-pos/api/internal/config"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/logger"
)

type sampleProduct struct {
	name, description, price, category string
}

var sampleMenu = []sampleProduct{
	{"Burger", "Beef patty, cheddar, pickles", "8.50", "Mains"},
	{"Margherita", "Tomato, mozzarella, basil", "11.00", "Mains"},
	{"Fries", "Salted, skin on", "3.00", "Sides"},
	{"Cola", "330ml can", "1.20", "Drinks"},
	{"Lemonade", "House made", "2.50", "Drinks"},
}

func main() {
	// CLI flags
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	withMenu := flag.Bool("menu", true, "Also seed a sample menu")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	// Fall back to environment variables, then defaults
	*email = firstNonEmpty(*email, os.Getenv("SEED_EMAIL"), "admin@mesa.local")
	*name = firstNonEmpty(*name, os.Getenv("SEED_NAME"), "Admin")
	*password = firstNonEmpty(*password, os.Getenv("SEED_PASSWORD"))
	if *password == "" {
		*password = "password123"
		log.Warn().Msg("using default password 'password123', change it immediately in production")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	if err := seed(ctx, pool, *email, *password, *name, *withMenu); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Msg("seed completed")
}

// seed runs in one transaction: either everything is created or nothing is.
func seed(ctx context.Context, pool *pgxpool.Pool, email, password, name string, withMenu bool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := database.New(tx)
	if err := seedAdmin(ctx, q, email, password, name); err != nil {
		return err
	}
	if withMenu {
		if err := seedMenu(ctx, q); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// seedAdmin creates the admin user if the email is not taken yet.
func seedAdmin(ctx context.Context, q *database.Queries, email, password, name string) error {
	existing, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		log.Info().Str("email", email).Str("id", existing.ID.String()).Msg("admin already exists, skipping")
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := q.CreateUser(ctx, database.CreateUserParams{
		Name:           name,
		Email:          email,
		HashedPassword: string(hashed),
		RoleID:         enum.RoleIDAdmin,
	})
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	log.Info().Str("email", email).Str("id", user.ID.String()).Msg("created admin")
	return nil
}

func seedMenu(ctx context.Context, q *database.Queries) error {
	for _, p := range sampleMenu {
		if _, err := q.GetProductByName(ctx, p.name); err == nil {
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check product %s: %w", p.name, err)
		}

		category, err := q.GetCategoryByName(ctx, p.category)
		if errors.Is(err, pgx.ErrNoRows) {
			category, err = q.CreateCategory(ctx, p.category)
		}
		if err != nil {
			return fmt.Errorf("category %s: %w", p.category, err)
		}

		var price pgtype.Numeric
		if err := price.Scan(p.price); err != nil {
			return fmt.Errorf("price %s: %w", p.price, err)
		}

		if _, err := q.CreateProduct(ctx, database.CreateProductParams{
			Name:        p.name,
			Description: p.description,
			Price:       price,
			CategoryID:  category.ID,
		}); err != nil {
			return fmt.Errorf("insert product %s: %w", p.name, err)
		}
		log.Info().Str("product", p.name).Str("category", p.category).Msg("created product")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

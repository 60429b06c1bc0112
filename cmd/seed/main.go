// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"quotis/internal/core/apperror"
	"quotis/internal/core/types"
	"quotis/internal/domain/auth"
	"quotis/internal/domain/catalogs/category"
	"quotis/internal/domain/catalogs/group"
	"quotis/internal/domain/catalogs/product"
	"quotis/internal/domain/catalogs/state"
	"quotis/internal/domain/catalogs/task"
	"quotis/internal/domain/margin"
	"quotis/internal/infrastructure/storage/postgres"
	"quotis/internal/infrastructure/storage/postgres/auth_repo"
	"quotis/internal/infrastructure/storage/postgres/catalog_repo"
	"quotis/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	if err := seedAdminUser(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	users := auth_repo.NewUserRepo(txManager)
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("seed-only"))
	authService := auth.NewService(users, txManager, jwtService, auth.DefaultServiceConfig())

	user, err := authService.Register(ctx, auth.RegisterRequest{
		Username: "admin",
		Email:    "admin@quotis.local",
		Password: adminPassword,
	})
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeConflict {
			log.Info("admin user already exists, skipping")
			return nil
		}
		return err
	}

	user.Roles = []string{"admin"}
	if err := users.Update(ctx, user); err != nil {
		return fmt.Errorf("assign admin role: %w", err)
	}

	log.Infow("admin user created", "user_id", user.ID)
	return nil
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	groupRepo := catalog_repo.NewGroupRepo(txManager)
	categoryRepo := catalog_repo.NewCategoryRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	stateRepo := catalog_repo.NewStateRepo(txManager)
	taskRepo := catalog_repo.NewTaskRepo(txManager)

	groups := group.NewService(groupRepo, txManager)
	categories := category.NewService(categoryRepo, groupRepo, txManager)
	products := product.NewService(productRepo, categoryRepo, txManager)
	states := state.NewService(stateRepo, txManager)
	tasks := task.NewService(taskRepo, categoryRepo, txManager)

	// --- Workflow states ---
	for _, st := range []*state.State{
		state.New("DRAFT", "Draft", true),
		state.New("SENT", "Sent to customer", false),
		state.New("APPROVED", "Approved", false),
	} {
		if exists, err := stateRepo.ExistsByCode(ctx, st.Code); err != nil {
			return err
		} else if exists {
			continue
		}
		if err := states.Create(ctx, st); err != nil {
			return fmt.Errorf("seed state %s: %w", st.Code, err)
		}
	}

	// --- Hardware group with a contiguous margin table ---
	hw := group.New("HW", "Hardware")
	hw.AddMargin(0, 1000, 0.25)
	hw.AddMargin(1000, 10000, 0.18)
	hw.AddMargin(10000, 1000000, 0.12)

	if exists, err := groupRepo.ExistsByCode(ctx, hw.Code); err != nil {
		return err
	} else if exists {
		log.Info("demo data already present, skipping")
		return nil
	}

	if err := groups.Create(ctx, hw); err != nil {
		return fmt.Errorf("seed group: %w", err)
	}

	// --- Services group ---
	srv := group.New("SRV", "Services")
	srv.AddMargin(0, 5000, 0.35)
	srv.AddMargin(5000, 1000000, 0.28)
	if err := groups.Create(ctx, srv); err != nil {
		return fmt.Errorf("seed group: %w", err)
	}

	// --- Categories ---
	network := category.New("NET", "Networking", hw.ID)
	if err := categories.Create(ctx, network); err != nil {
		return fmt.Errorf("seed category: %w", err)
	}

	install := category.New("INST", "Installation", srv.ID)
	if err := categories.Create(ctx, install); err != nil {
		return fmt.Errorf("seed category: %w", err)
	}

	// --- Products ---
	for _, p := range []*product.Product{
		product.New("SW-24", "24-port switch", network.ID, types.NewMoney(489.00)),
		product.New("AP-AC", "Ceiling access point", network.ID, types.NewMoney(129.50)),
		product.New("CAB-305", "Cat6 cable drum 305m", network.ID, types.NewMoney(98.90)),
	} {
		if err := products.Create(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.Code, err)
		}
	}

	// --- Install task with quantity brackets ---
	cabling := task.New("T-CABLE", "Structured cabling", install.ID)
	cabling.AddItem("Cable run", margin.Table{
		margin.NewRange(0, 10, 18.00),
		margin.NewRange(10, 50, 14.50),
		margin.NewRange(50, 10000, 11.00),
	})
	cabling.AddItem("Socket termination", margin.Table{
		margin.NewRange(0, 10000, 6.50),
	})
	if err := tasks.Create(ctx, cabling); err != nil {
		return fmt.Errorf("seed task: %w", err)
	}

	log.Info("demo data created")
	return nil
}

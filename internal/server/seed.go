package server

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"go.uber.org/zap"
)

// DemoPassword is the password of every seeded demo account
const DemoPassword = "Password123"

// demoAccounts are registered in order, so on an empty user table they own
// the demo products listed for owners 1 and 2
var demoAccounts = []service.RegisterInput{
	{Username: "juanperez", Email: "juan@email.com", Password: DemoPassword, FirstName: "Juan", LastName: "Pérez"},
	{Username: "mariagarcia", Email: "maria@email.com", Password: DemoPassword, FirstName: "María", LastName: "García"},
}

// seedDemoData fills an empty catalog with the demo categories, sellers and
// products. A catalog that already has categories is left alone.
func seedDemoData(ctx context.Context, users service.UserService, userRepo repository.UserRepository,
	categories repository.CategoryRepository, products repository.ProductRepository, logger *zap.Logger) error {

	existing, err := categories.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to check catalog: %w", err)
	}
	if len(existing) > 0 {
		logger.Debug("Catalog already populated, skipping demo data", zap.Int("categories", len(existing)))
		return nil
	}

	owners := make(map[int64]int64, len(demoAccounts))
	for i, account := range demoAccounts {
		user, err := users.Register(ctx, account)
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			user, err = userRepo.FindByEmail(ctx, account.Email)
		}
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", account.Email, err)
		}
		owners[int64(i+1)] = user.ID
	}

	categoryIDs := make(map[int64]int64)
	for _, c := range repository.DemoCategories() {
		demoID := c.ID
		c.ID = 0
		if err := categories.Create(ctx, c); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.Name, err)
		}
		categoryIDs[demoID] = c.ID
	}

	for _, p := range repository.DemoProducts() {
		p.ID = 0
		p.CategoryID = categoryIDs[p.CategoryID]
		p.OwnerID = owners[p.OwnerID]
		if err := products.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Title, err)
		}
	}

	logger.Info("Seeded demo data",
		zap.Int("users", len(owners)),
		zap.Int("categories", len(categoryIDs)),
	)
	return nil
}

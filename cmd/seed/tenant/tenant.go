package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutoring-controlplane/pkg/config"
	"tutoring-controlplane/pkg/db"
	"tutoring-controlplane/pkg/gen"
	"tutoring-controlplane/pkg/logger"
	"tutoring-controlplane/services/apikey"
	"tutoring-controlplane/services/license"
)

// Seeds a tenant: mints an API key pair and activates a trial license. The
// secret is printed once and never recoverable afterwards.
func main() {
	tenantID := flag.String("tenant", "", "tenant id to seed")
	seats := flag.Int("seats", 0, "override seat count (0 keeps the trial default)")
	flag.Parse()

	if *tenantID == "" {
		log.Fatal("usage: tenant -tenant <id> [-seats n]")
	}

	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		gen.Module,
		apikey.Module,
		license.Module,
		fx.Invoke(func(gdb *gorm.DB, keys *apikey.Service, licenses *license.Service, shutdowner fx.Shutdowner) error {
			defer shutdowner.Shutdown()
			ctx := context.Background()

			if err := gdb.AutoMigrate(&apikey.APIKey{}, &license.License{}); err != nil {
				return err
			}

			plan := license.TrialPlan
			if *seats > 0 {
				plan.MaxSeats = *seats
			}

			lic, err := licenses.ActivateLicense(ctx, *tenantID, plan)
			if err != nil {
				return err
			}

			keyID, secret, err := keys.CreateKey(ctx, *tenantID)
			if err != nil {
				return err
			}

			zap.L().Info("tenant seeded",
				zap.String("tenant_id", *tenantID),
				zap.String("license_id", lic.ID),
				zap.Int("max_seats", lic.MaxSeats),
			)
			fmt.Printf("api key: %s.%s\n", keyID, secret)
			return nil
		}),
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

package app

import (
	"context"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"

	"github.com/appetiteclub/delivery/pkg"
	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/appetiteclub/delivery/pkg/grpchealth"
	"github.com/appetiteclub/delivery/pkg/mongodb"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/appetiteclub/delivery/services/restaurant/internal/kitchen"
	"github.com/appetiteclub/delivery/services/restaurant/internal/mongo"
	"github.com/appetiteclub/delivery/services/restaurant/internal/restaurant"
)

const (
	AppName    = "restaurant"
	AppVersion = "0.1.0"
)

// App wires the restaurant service: restaurants, menus and the kitchen.
type App struct {
	config   *aqm.Config
	logger   aqm.Logger
	micro    *aqm.Micro
	baseRepo *mongodb.BaseRepo
}

func New(config *aqm.Config, logger aqm.Logger) (*App, error) {
	if config == nil {
		return nil, fmt.Errorf("%s: config is required", AppName)
	}
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize connects the store and the bus and builds the micro service.
func (a *App) Initialize(ctx context.Context) error {
	a.baseRepo = mongodb.NewBaseRepo(a.config, a.logger, "delivery_restaurant")
	if err := a.baseRepo.Start(ctx); err != nil {
		return fmt.Errorf("cannot start base repository: %w", err)
	}
	db := a.baseRepo.GetDatabase()

	restaurantRepo := mongo.NewRestaurantRepo(db)
	menuItemRepo := mongo.NewMenuItemRepo(db)
	kitchenRepo := mongo.NewKitchenOrderRepo(db, a.baseRepo.Tx())
	for _, ensure := range []func(context.Context) error{
		restaurantRepo.EnsureIndexes,
		menuItemRepo.EnsureIndexes,
		kitchenRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}

	// Apply demo seeds if enabled
	if err := restaurant.ApplyDemoSeeds(ctx, a.config, a.baseRepo.GetDatabase, a.logger); err != nil {
		a.logger.Errorf("Demo seeding failed (non-fatal): %v", err)
	}

	bus, err := pkg.NewBus(a.config, pkg.BusConfig{Service: AppName, Topics: event.AllTopics}, a.logger)
	if err != nil {
		return fmt.Errorf("cannot connect to event bus: %w", err)
	}

	owners := kitchen.OwnerLookupFunc(func(ctx context.Context, ownerID string) (string, error) {
		r, err := restaurantRepo.GetByOwner(ctx, ownerID)
		if err != nil || r == nil {
			return "", err
		}
		return r.ID.String(), nil
	})

	restaurantHandler := restaurant.NewHandler(restaurant.HandlerDeps{
		Restaurants: restaurantRepo,
		Items:       menuItemRepo,
	}, a.config, a.logger)

	kitchenService := kitchen.NewService(kitchenRepo, owners, a.logger)
	kitchenHandler := kitchen.NewHandler(kitchenService, a.config, a.logger)
	subscriber := kitchen.NewEventSubscriber(bus.Subscriber, kitchenService, a.logger)

	dispatcher := outbox.NewDispatcher(outbox.NewMongoStore(db), bus.Publisher, outbox.ConfigFrom(a.config), a.logger)
	health := grpchealth.NewServer(AppName)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: a.logger,
	})
	verifier, err := auth.VerifierFrom(a.config, a.logger)
	if err != nil {
		return err
	}
	stack = append(stack, auth.Middleware(verifier))

	lifecycles := []interface{}{
		aqm.LifecycleHooks{OnStop: a.baseRepo.Stop},
		dispatcher,
		subscriber,
		health,
		aqm.LifecycleHooks{OnStop: bus.Stop},
	}

	options := []aqm.Option{
		aqm.WithConfig(a.config),
		aqm.WithLogger(a.logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", restaurantHandler, kitchenHandler),
		aqm.WithGRPCServerModules("grpc.port", health),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(AppName),
	}

	a.micro = aqm.NewMicro(options...)
	return nil
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	if a.micro == nil {
		return fmt.Errorf("%s: not initialized", AppName)
	}
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		_ = a.baseRepo.Stop(context.Background())
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}

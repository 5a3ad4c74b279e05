package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"

	"github.com/appetiteclub/delivery/pkg"
	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/appetiteclub/delivery/pkg/grpchealth"
	"github.com/appetiteclub/delivery/pkg/mongodb"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/appetiteclub/delivery/services/payment/internal/mongo"
	"github.com/appetiteclub/delivery/services/payment/internal/payment"
)

const (
	appNamespace = "PAYMENT"
	appName      = "payment"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongodb.NewBaseRepo(config, logger, "delivery_payment")
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	paymentRepo := mongo.NewPaymentRepo(db, baseRepo.Tx())
	if err := paymentRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("%s(%s) cannot create indexes: %v", appName, appVersion, err)
	}

	bus, err := pkg.NewBus(config, pkg.BusConfig{Service: appName, Topics: event.AllTopics}, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to event bus: %v", appName, appVersion, err)
	}

	service := payment.NewService(paymentRepo, logger)
	handler := payment.NewHandler(service, config, logger)
	subscriber := payment.NewEventSubscriber(bus.Subscriber, service, logger)
	dispatcher := outbox.NewDispatcher(outbox.NewMongoStore(db), bus.Publisher, outbox.ConfigFrom(config), logger)
	health := grpchealth.NewServer(appName)

	verifier, err := auth.VerifierFrom(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup auth: %v", appName, appVersion, err)
	}

	// Payments are only reachable from inside the deployment
	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})
	stack = append(stack,
		middleware.InternalOnly(),
		auth.Middleware(verifier),
	)

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithGRPCServerModules("grpc.port", health),
		aqm.WithLifecycle(
			aqm.LifecycleHooks{OnStop: baseRepo.Stop},
			dispatcher,
			subscriber,
			health,
			aqm.LifecycleHooks{OnStop: bus.Stop},
		),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

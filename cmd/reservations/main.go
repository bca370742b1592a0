package main

import (
	"context"

	"railbook/internal/events"
	invhandler "railbook/internal/inventory/handler"
	invrepo "railbook/internal/inventory/repository"
	invservice "railbook/internal/inventory/service"
	"railbook/internal/reservations/handler"
	"railbook/internal/reservations/repository"
	"railbook/internal/reservations/service"
	"railbook/internal/reservations/validator"
	schedrepo "railbook/internal/schedules/repository"
	"railbook/internal/worker"
	"railbook/pkg/app"
	"railbook/pkg/config"
	kafkaconfig "railbook/pkg/kafka/config"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Reservations service")

	publisher, err := events.New(kafkaconfig.Load(), ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}

	holdRepo := repository.NewMongoHoldRepository(cfg)
	ticketRepo := repository.NewMongoTicketRepository(cfg)
	inventoryRepo := invrepo.NewMongoSeatInventoryRepository(cfg)
	journeyRepo := schedrepo.NewMongoJourneyRepository(cfg)
	trainRepo := schedrepo.NewMongoTrainRepository(cfg)

	inventoryService := invservice.NewInventoryService(inventoryRepo, cfg)
	holdValidator := validator.NewHoldValidator(cfg.MaxSeatsPerHold, cfg.Log)
	reservationService := service.NewReservationService(
		holdRepo,
		ticketRepo,
		inventoryService,
		journeyRepo,
		trainRepo,
		holdValidator,
		publisher,
		cfg,
	)
	sweeperService := service.NewSweeperService(holdRepo, ticketRepo, inventoryService, publisher, cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		handler.NewReservationHandler(reservationService, cfg.Log),
		invhandler.NewSeatMapHandler(inventoryService, cfg.Log),
	)
	serverApp.AddWorker(worker.NewRunner("hold-sweeper", cfg.HoldSweepInterval, true, func(ctx context.Context) error {
		_, err := sweeperService.SweepExpiredHolds(ctx)
		return err
	}, cfg.Log))
	serverApp.AddWorker(worker.NewRunner("ticket-sweeper", cfg.TicketSweepInterval, false, func(ctx context.Context) error {
		_, err := sweeperService.RetireDepartedTickets(ctx)
		return err
	}, cfg.Log))
	serverApp.AddCloser(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})

	cfg.Log.Info("Reservations service initialized", "database", cfg.MongoDatabaseName)
	serverApp.Run()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"railbook/internal/events"
	invrepo "railbook/internal/inventory/repository"
	schederrors "railbook/internal/schedules/errors"
	"railbook/internal/schedules/repository"
	"railbook/pkg/bitmap"
	"railbook/pkg/config"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// MaterializationReport summarizes one materialization run. Skipped counts
// templates missing train data; AlreadyExists counts idempotent re-runs.
type MaterializationReport struct {
	TargetDate    time.Time `json:"target_date"`
	Created       int       `json:"created"`
	AlreadyExists int       `json:"already_exists"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
}

type MaterializerService interface {
	// MaterializeForDate expands every active template matching the target
	// date's weekday into a concrete journey with seat inventories. Safe to
	// invoke repeatedly for the same date.
	MaterializeForDate(ctx context.Context, targetDate time.Time) (*MaterializationReport, error)
	// MaterializeHorizon runs MaterializeForDate for today plus the
	// configured look-ahead horizon.
	MaterializeHorizon(ctx context.Context) error
	JourneysForDate(ctx context.Context, date time.Time) ([]*model.ConcreteJourney, error)
	JourneySegments(ctx context.Context, journeyID string) ([]*model.ConcreteSegment, error)
}

type materializerService struct {
	templates repository.ScheduleTemplateRepository
	trains    repository.TrainRepository
	journeys  repository.JourneyRepository
	inventory invrepo.SeatInventoryRepository
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewMaterializerService(
	templates repository.ScheduleTemplateRepository,
	trains repository.TrainRepository,
	journeys repository.JourneyRepository,
	inventory invrepo.SeatInventoryRepository,
	publisher events.Publisher,
	cfg *config.Config,
) MaterializerService {
	return &materializerService{
		templates: templates,
		trains:    trains,
		journeys:  journeys,
		inventory: inventory,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *materializerService) MaterializeHorizon(ctx context.Context) error {
	targetDate := s.now().AddDate(0, 0, s.cfg.MaterializeHorizonDays)
	_, err := s.MaterializeForDate(ctx, targetDate)
	return err
}

func (s *materializerService) MaterializeForDate(ctx context.Context, targetDate time.Time) (*MaterializationReport, error) {
	target := dayStart(targetDate)
	if !target.After(dayStart(s.now())) {
		return nil, apperrors.InvalidInput("Target date must be in the future")
	}

	templates, err := s.templates.FindActive(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load active schedule templates", err)
	}

	report := &MaterializationReport{TargetDate: target}

	for _, template := range templates {
		// Cancellation is observed per template, never mid-transaction.
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		if !template.RunsOn(target) {
			continue
		}

		if err := s.materializeTemplate(ctx, template, target, report); err != nil {
			// One template's failure must not abort the rest of the run.
			report.Failed++
			s.cfg.Log.Error("Failed to materialize journey for template",
				"template_id", template.ID,
				"target_date", target,
				"error", err,
			)
		}
	}

	s.cfg.Log.Info("Materialization run completed",
		"target_date", target,
		"created", report.Created,
		"already_exists", report.AlreadyExists,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *materializerService) materializeTemplate(ctx context.Context, template *model.ScheduleTemplate, target time.Time, report *MaterializationReport) error {
	_, err := s.journeys.FindByTemplateAndDate(ctx, template.ID, target)
	if err == nil {
		report.AlreadyExists++
		return nil
	}
	if !errors.Is(err, schederrors.ErrJourneyNotFound) {
		return fmt.Errorf("existence check failed: %w", err)
	}

	train, err := s.trains.FindByID(ctx, template.TrainID)
	if err != nil {
		if errors.Is(err, schederrors.ErrTrainNotFound) || errors.Is(err, schederrors.ErrInvalidID) {
			report.Skipped++
			s.cfg.Log.Warn("Template references missing train, skipping",
				"template_id", template.ID,
				"train_id", template.TrainID,
			)
			return nil
		}
		return fmt.Errorf("failed to load train: %w", err)
	}

	journey := &model.ConcreteJourney{
		TemplateID:    template.ID,
		TrainID:       train.ID,
		DepartureDate: target,
	}

	var segmentCount, inventoryCount int
	err = s.journeys.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.journeys.Create(sessCtx, journey); err != nil {
			return err
		}

		segments := make([]*model.ConcreteSegment, 0, len(template.Segments))
		for _, ts := range template.Segments {
			segments = append(segments, &model.ConcreteSegment{
				JourneyID:     journey.ID,
				SegmentNumber: ts.SegmentNumber,
				FromStop:      ts.FromStop,
				ToStop:        ts.ToStop,
				DepartureTime: target.Add(time.Duration(ts.DepartureOffsetMin) * time.Minute),
				ArrivalTime:   target.Add(time.Duration(ts.ArrivalOffsetMin) * time.Minute),
				SegmentCost:   ts.SegmentCost,
			})
		}
		if err := s.journeys.CreateSegments(sessCtx, segments); err != nil {
			return err
		}

		inventories := make([]*model.SeatInventory, 0, len(segments)*len(train.Carriages))
		for _, segment := range segments {
			for _, carriage := range train.Carriages {
				inventories = append(inventories, &model.SeatInventory{
					JourneyID:     journey.ID,
					SegmentID:     segment.ID,
					SegmentNumber: segment.SegmentNumber,
					CarriageID:    carriage.ID,
					TotalSeats:    carriage.TotalSeats,
					Occupancy:     bitmap.NewAllFree(carriage.TotalSeats),
				})
			}
		}
		if err := s.inventory.CreateMany(sessCtx, inventories); err != nil {
			return err
		}

		segmentCount = len(segments)
		inventoryCount = len(inventories)
		return nil
	})
	if err != nil {
		// A concurrent run won the unique (template_id, departure_date)
		// index race; the journey exists, which is what we wanted.
		if errors.Is(err, schederrors.ErrJourneyExists) {
			report.AlreadyExists++
			return nil
		}
		return err
	}

	report.Created++
	s.cfg.Log.Info("Journey materialized",
		"journey_id", journey.ID,
		"template_id", template.ID,
		"train_id", train.ID,
		"departure_date", target,
		"segments", segmentCount,
		"inventories", inventoryCount,
	)
	s.publisher.Publish(ctx, events.EventJourneyMaterialized, journey.ID, map[string]any{
		"journey_id":     journey.ID,
		"template_id":    template.ID,
		"train_id":       train.ID,
		"departure_date": target,
		"segments":       segmentCount,
		"inventories":    inventoryCount,
	})
	return nil
}

func (s *materializerService) JourneysForDate(ctx context.Context, date time.Time) ([]*model.ConcreteJourney, error) {
	journeys, err := s.journeys.FindByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to load journeys", err)
	}
	return journeys, nil
}

func (s *materializerService) JourneySegments(ctx context.Context, journeyID string) ([]*model.ConcreteSegment, error) {
	if journeyID == "" {
		return nil, apperrors.InvalidInput("Journey ID cannot be empty")
	}
	segments, err := s.journeys.FindSegments(ctx, journeyID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load journey segments", err)
	}
	return segments, nil
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

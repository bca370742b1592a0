package service

import (
	"context"
	"errors"

	"railbook/internal/inventory/repository"
	"railbook/pkg/bitmap"
	"railbook/pkg/config"
	mongotx "railbook/pkg/db/mongo"
	apperrors "railbook/pkg/errors"
)

// SeatMap is the read-only availability summary for one (segment, carriage).
type SeatMap struct {
	SegmentID   string `json:"segment_id"`
	CarriageID  string `json:"carriage_id"`
	TotalSeats  int    `json:"total_seats"`
	FreeSeats   int    `json:"free_seats"`
	FreeIndexes []int  `json:"free_indexes"`
}

// InventoryService owns all reads and guarded writes of seat occupancy.
// IsSpanAvailable and FlipSpan are meant to be called with a transaction's
// SessionContext so the availability check and the flip observe the same
// snapshot; the read-only summaries run on plain contexts.
type InventoryService interface {
	IsSpanAvailable(ctx context.Context, journeyID string, startSegment, endSegment int, carriageID string, seatIndex int) (bool, error)
	FlipSpan(ctx context.Context, journeyID string, startSegment, endSegment int, carriageID string, seatIndex int, toOccupied bool) (bool, error)
	CountFree(ctx context.Context, segmentID, carriageID string) (int, error)
	FreeSeatIndexes(ctx context.Context, segmentID, carriageID string) ([]int, error)
	SeatMap(ctx context.Context, segmentID, carriageID string) (*SeatMap, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type inventoryService struct {
	repo  repository.SeatInventoryRepository
	cache *seatMapCache
	cfg   *config.Config
}

func NewInventoryService(repo repository.SeatInventoryRepository, cfg *config.Config) InventoryService {
	return &inventoryService{
		repo:  repo,
		cache: newSeatMapCache(cfg.Client.Redis, cfg.SeatMapCacheTTL, cfg.Log),
		cfg:   cfg,
	}
}

func (s *inventoryService) IsSpanAvailable(ctx context.Context, journeyID string, startSegment, endSegment int, carriageID string, seatIndex int) (bool, error) {
	if startSegment > endSegment {
		return false, apperrors.InvalidInput("Start segment must not be greater than end segment")
	}

	inventories, err := s.repo.FindSpan(ctx, journeyID, carriageID, startSegment, endSegment)
	if err != nil {
		if errors.Is(err, repository.ErrIncompleteSpan) {
			return false, apperrors.NotFound("Seat inventory for requested span")
		}
		return false, apperrors.Internal("Failed to load seat inventory span", err)
	}

	for _, inv := range inventories {
		if seatIndex >= inv.TotalSeats {
			return false, apperrors.InvalidInput("Seat index out of range for carriage")
		}
		if !bitmap.IsFree(inv.Occupancy, seatIndex) {
			return false, nil
		}
	}
	return true, nil
}

// FlipSpan sets the seat's bit across every segment of the span. For
// toOccupied=true a segment whose bit is already occupied makes the whole
// call return false without touching anything; the surrounding transaction
// discards any flips already applied. A lost compare-and-swap also returns
// false: a concurrent booking got there first.
func (s *inventoryService) FlipSpan(ctx context.Context, journeyID string, startSegment, endSegment int, carriageID string, seatIndex int, toOccupied bool) (bool, error) {
	if startSegment > endSegment {
		return false, apperrors.InvalidInput("Start segment must not be greater than end segment")
	}

	inventories, err := s.repo.FindSpan(ctx, journeyID, carriageID, startSegment, endSegment)
	if err != nil {
		if errors.Is(err, repository.ErrIncompleteSpan) {
			return false, apperrors.NotFound("Seat inventory for requested span")
		}
		return false, apperrors.Internal("Failed to load seat inventory span", err)
	}

	for _, inv := range inventories {
		if seatIndex >= inv.TotalSeats {
			return false, apperrors.InvalidInput("Seat index out of range for carriage")
		}
		if toOccupied && !bitmap.IsFree(inv.Occupancy, seatIndex) {
			return false, nil
		}
	}

	for _, inv := range inventories {
		next := bitmap.Clone(inv.Occupancy)
		if toOccupied {
			bitmap.SetOccupied(next, seatIndex)
		} else {
			bitmap.SetFree(next, seatIndex)
		}

		swapped, err := s.repo.CompareAndSwapOccupancy(ctx, inv.ID, inv.Occupancy, next)
		if err != nil {
			return false, apperrors.Internal("Failed to flip seat occupancy", err)
		}
		if !swapped {
			return false, nil
		}
	}

	return true, nil
}

func (s *inventoryService) CountFree(ctx context.Context, segmentID, carriageID string) (int, error) {
	seatMap, err := s.SeatMap(ctx, segmentID, carriageID)
	if err != nil {
		return 0, err
	}
	return seatMap.FreeSeats, nil
}

func (s *inventoryService) FreeSeatIndexes(ctx context.Context, segmentID, carriageID string) ([]int, error) {
	seatMap, err := s.SeatMap(ctx, segmentID, carriageID)
	if err != nil {
		return nil, err
	}
	return seatMap.FreeIndexes, nil
}

func (s *inventoryService) SeatMap(ctx context.Context, segmentID, carriageID string) (*SeatMap, error) {
	if segmentID == "" || carriageID == "" {
		return nil, apperrors.InvalidInput("Segment ID and carriage ID are required")
	}

	if cached := s.cache.Get(ctx, segmentID, carriageID); cached != nil {
		return cached, nil
	}

	inv, err := s.repo.FindBySegmentAndCarriage(ctx, segmentID, carriageID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			return nil, apperrors.NotFound("Seat inventory")
		}
		return nil, apperrors.Internal("Failed to load seat inventory", err)
	}

	seatMap := &SeatMap{
		SegmentID:   segmentID,
		CarriageID:  carriageID,
		TotalSeats:  inv.TotalSeats,
		FreeSeats:   bitmap.CountFree(inv.Occupancy, inv.TotalSeats),
		FreeIndexes: bitmap.FreeIndexes(inv.Occupancy, inv.TotalSeats),
	}
	s.cache.Set(ctx, seatMap)

	return seatMap, nil
}

func (s *inventoryService) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return s.repo.ExecuteTransaction(ctx, fn)
}

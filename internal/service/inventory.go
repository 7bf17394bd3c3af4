package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/models"
)

// InventoryRepository defines the owner-scoped persistence operations needed
// by the InventoryService. Implementations must apply the owner predicate in
// the same statement that reads or mutates the row.
type InventoryRepository interface {
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	// ListItems returns ownerID's items, newest first.
	ListItems(ctx context.Context, ownerID string) ([]models.InventoryItem, error)
	SummarizeItems(ctx context.Context, ownerID string) (models.Summary, error)
	// UpdateItem returns apperr.ErrNotFound unless itemID exists and belongs to ownerID.
	UpdateItem(ctx context.Context, ownerID, itemID string, patch models.ItemPatch, updatedAt time.Time) (*models.InventoryItem, error)
	// DeleteItem returns apperr.ErrNotFound unless itemID exists and belongs to ownerID.
	DeleteItem(ctx context.Context, ownerID, itemID string) error
}

// ListResult is one owner's inventory together with its summary.
type ListResult struct {
	Items   []models.InventoryItem
	Summary models.Summary
}

// InventoryService implements inventory operations on behalf of an acting identity.
type InventoryService struct {
	repo     InventoryRepository
	validate StructValidator
	now      func() time.Time
}

// NewInventoryService constructs an InventoryService with the provided repository.
func NewInventoryService(repo InventoryRepository, validate StructValidator) *InventoryService {
	return &InventoryService{repo: repo, validate: validate, now: time.Now}
}

// Create validates in and stores a new item owned by ownerID.
func (s *InventoryService) Create(ctx context.Context, ownerID string, in models.ItemInput) (*models.InventoryItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ApplyDefaults()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &models.InventoryItem{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Category:    in.Category,
		Quantity:    *in.Quantity,
		Unit:        in.Unit,
		PlantedDate: *in.PlantedDate,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.HarvestDate != nil && !in.HarvestDate.IsZero() {
		h := *in.HarvestDate
		item.HarvestDate = &h
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// List returns ownerID's items newest first and their summary.
func (s *InventoryService) List(ctx context.Context, ownerID string) (*ListResult, error) {
	items, err := s.repo.ListItems(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.SummarizeItems(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	return &ListResult{Items: items, Summary: summary}, nil
}

// Update applies the fields present in patch to ownerID's item itemID.
// Items that do not exist, belong to someone else, or carry a malformed id are
// all reported as apperr.ErrNotFound.
func (s *InventoryService) Update(ctx context.Context, ownerID, itemID string, patch models.ItemPatch) (*models.InventoryItem, error) {
	if !validItemID(itemID) {
		return nil, apperr.ErrNotFound
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, err
	}
	return s.repo.UpdateItem(ctx, ownerID, itemID, patch, s.now().UTC())
}

// Delete removes ownerID's item itemID.
func (s *InventoryService) Delete(ctx context.Context, ownerID, itemID string) error {
	if !validItemID(itemID) {
		return apperr.ErrNotFound
	}
	return s.repo.DeleteItem(ctx, ownerID, itemID)
}

func validItemID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

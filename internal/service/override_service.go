package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/models"
)

// OverrideManager is the full persistence surface of the override editor.
type OverrideManager interface {
	OverrideStore
	SetMany(overrides []models.Override) error
	DeleteOne(productID string) (bool, error)
	DeleteAll() (int64, error)
}

// OverrideService validates and persists manual price overrides. The stored
// price string is applied to the catalog verbatim, so validation happens
// here, at the door.
type OverrideService struct {
	repo OverrideManager
}

// NewOverrideService wires the override store.
func NewOverrideService(repo OverrideManager) *OverrideService {
	return &OverrideService{repo: repo}
}

// List returns all stored overrides.
func (s *OverrideService) List() ([]models.Override, error) {
	return s.repo.GetAll()
}

// Set validates and upserts a batch of overrides.
func (s *OverrideService) Set(overrides []models.Override) error {
	for i := range overrides {
		overrides[i].ProductID = strings.TrimSpace(overrides[i].ProductID)
		overrides[i].Price = strings.TrimSpace(overrides[i].Price)
		if err := validateOverride(overrides[i]); err != nil {
			return err
		}
	}
	if err := s.repo.SetMany(overrides); err != nil {
		return err
	}
	log.Info().Int("count", len(overrides)).Msg("overrides stored")
	return nil
}

// Delete removes one override. Returns false when it did not exist.
func (s *OverrideService) Delete(productID string) (bool, error) {
	return s.repo.DeleteOne(productID)
}

// Clear removes every override and returns how many were dropped.
func (s *OverrideService) Clear() (int64, error) {
	return s.repo.DeleteAll()
}

func validateOverride(o models.Override) error {
	if o.ProductID == "" {
		return fmt.Errorf("override with empty product id")
	}
	price, err := strconv.ParseFloat(o.Price, 64)
	if err != nil {
		return fmt.Errorf("override %s: price %q is not a decimal", o.ProductID, o.Price)
	}
	if price < 0 {
		return fmt.Errorf("override %s: price must not be negative", o.ProductID)
	}
	return nil
}

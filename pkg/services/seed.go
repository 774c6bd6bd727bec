package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hearc-ig/guideresto/pkg/apperrors"
	"github.com/hearc-ig/guideresto/pkg/database"
	"github.com/hearc-ig/guideresto/pkg/mappers"
	"github.com/hearc-ig/guideresto/pkg/models"
)

// Seed is a catalog document. Restaurants reference cities by zip code and
// types by label; both may come from the document or already be stored.
// Seeding never assigns ids to the document's own entries.
type Seed struct {
	Cities             []*models.City               `yaml:"cities"`
	RestaurantTypes    []*models.RestaurantType     `yaml:"restaurant_types"`
	EvaluationCriteria []*models.EvaluationCriteria `yaml:"evaluation_criteria"`
	Restaurants        []SeedRestaurant             `yaml:"restaurants"`
}

// SeedRestaurant is a restaurant entry of a seed document.
type SeedRestaurant struct {
	Name        string `yaml:"name"`
	Street      string `yaml:"street"`
	ZipCode     string `yaml:"zip_code"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Website     string `yaml:"website"`
}

// SeedResult counts the entities a seed run created. Entries already
// stored are skipped and not counted.
type SeedResult struct {
	Cities             int
	RestaurantTypes    int
	EvaluationCriteria int
	Restaurants        int
}

// LoadSeedFile reads and validates a YAML seed document.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document. Unknown keys are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks required fields and duplicate keys inside the document.
func (s *Seed) Validate() error {
	zips := make(map[string]bool)
	for i, c := range s.Cities {
		if c == nil || c.ZipCode == "" || c.Name == "" {
			return fmt.Errorf("cities[%d]: zip_code and name are required", i)
		}
		if zips[c.ZipCode] {
			return fmt.Errorf("cities[%d]: duplicate zip_code %q", i, c.ZipCode)
		}
		zips[c.ZipCode] = true
	}

	labels := make(map[string]bool)
	for i, t := range s.RestaurantTypes {
		if t == nil || t.Label == "" {
			return fmt.Errorf("restaurant_types[%d]: label is required", i)
		}
		if labels[t.Label] {
			return fmt.Errorf("restaurant_types[%d]: duplicate label %q", i, t.Label)
		}
		labels[t.Label] = true
	}

	names := make(map[string]bool)
	for i, c := range s.EvaluationCriteria {
		if c == nil || c.Name == "" {
			return fmt.Errorf("evaluation_criteria[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("evaluation_criteria[%d]: duplicate name %q", i, c.Name)
		}
		names[c.Name] = true
	}

	for i, r := range s.Restaurants {
		if r.Name == "" || r.Street == "" || r.ZipCode == "" || r.Type == "" {
			return fmt.Errorf("restaurants[%d]: name, street, zip_code and type are required", i)
		}
	}
	return nil
}

// SeedService loads seed documents into the guide.
type SeedService interface {
	// Seed creates every entry of the document that is not stored yet, in
	// one transaction.
	Seed(ctx context.Context, seed *Seed) (*SeedResult, error)
}

type seedService struct {
	mappers *mappers.Set
	logger  *zap.Logger
}

func NewSeedService(set *mappers.Set, logger *zap.Logger) SeedService {
	return &seedService{
		mappers: set,
		logger:  logger.Named("seed-service"),
	}
}

var _ SeedService = (*seedService)(nil)

func (s *seedService) Seed(ctx context.Context, seed *Seed) (*SeedResult, error) {
	if seed == nil {
		return &SeedResult{}, nil
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	var result *SeedResult
	err := database.InTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.seed(ctx, seed)
		return err
	})
	if err != nil {
		// Cached entities created inside the rolled back transaction are gone.
		s.mappers.ResetCaches()
		return nil, err
	}

	s.logger.Info("Seeded catalog",
		zap.Int("cities", result.Cities),
		zap.Int("restaurant_types", result.RestaurantTypes),
		zap.Int("evaluation_criteria", result.EvaluationCriteria),
		zap.Int("restaurants", result.Restaurants))
	return result, nil
}

func (s *seedService) seed(ctx context.Context, seed *Seed) (*SeedResult, error) {
	result := &SeedResult{}

	cities, err := s.mappers.Cities.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	cityByZip := make(map[string]*models.City, len(cities))
	for _, c := range cities {
		cityByZip[c.ZipCode] = c
	}
	for _, c := range seed.Cities {
		if _, ok := cityByZip[c.ZipCode]; ok {
			continue
		}
		city := *c
		if _, err := s.mappers.Cities.Create(ctx, &city); err != nil {
			return nil, err
		}
		cityByZip[c.ZipCode] = &city
		result.Cities++
	}

	types, err := s.mappers.RestaurantTypes.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	typeByLabel := make(map[string]*models.RestaurantType, len(types))
	for _, t := range types {
		typeByLabel[t.Label] = t
	}
	for _, t := range seed.RestaurantTypes {
		if _, ok := typeByLabel[t.Label]; ok {
			continue
		}
		typ := *t
		if _, err := s.mappers.RestaurantTypes.Create(ctx, &typ); err != nil {
			return nil, err
		}
		typeByLabel[t.Label] = &typ
		result.RestaurantTypes++
	}

	criteria, err := s.mappers.EvaluationCriteria.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	criteriaByName := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		criteriaByName[c.Name] = true
	}
	for _, c := range seed.EvaluationCriteria {
		if criteriaByName[c.Name] {
			continue
		}
		created := *c
		if _, err := s.mappers.EvaluationCriteria.Create(ctx, &created); err != nil {
			return nil, err
		}
		criteriaByName[c.Name] = true
		result.EvaluationCriteria++
	}

	restaurants, err := s.mappers.Restaurants.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	type restaurantKey struct{ name, zip string }
	stored := make(map[restaurantKey]bool, len(restaurants))
	for _, r := range restaurants {
		stored[restaurantKey{r.Name, r.Address.City.ZipCode}] = true
	}
	for _, entry := range seed.Restaurants {
		if stored[restaurantKey{entry.Name, entry.ZipCode}] {
			continue
		}
		city, ok := cityByZip[entry.ZipCode]
		if !ok {
			return nil, fmt.Errorf("restaurant %q: unknown city %q: %w", entry.Name, entry.ZipCode, apperrors.ErrInvalidReference)
		}
		typ, ok := typeByLabel[entry.Type]
		if !ok {
			return nil, fmt.Errorf("restaurant %q: unknown type %q: %w", entry.Name, entry.Type, apperrors.ErrInvalidReference)
		}

		if _, err := s.mappers.Restaurants.Create(ctx, &models.Restaurant{
			Name:        entry.Name,
			Description: entry.Description,
			Website:     entry.Website,
			Address:     models.Localisation{Street: entry.Street, City: city},
			Type:        typ,
		}); err != nil {
			return nil, err
		}
		stored[restaurantKey{entry.Name, entry.ZipCode}] = true
		result.Restaurants++
	}

	return result, nil
}

// Package matcher ranks a fixed catalog of profiles against free text by
// embedding similarity.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/glow/internal/dependencies/clock"
	"github.com/mcoot/glow/internal/model"
)

// VentStore keeps every vent that is matched
type VentStore interface {
	SaveVent(ctx context.Context, vent *model.Vent) error
}

// Config holds configuration for the matcher
type Config struct {
	// TopK is how many matches are returned
	TopK int
	// Parallelism caps concurrent profile embedding requests
	Parallelism int
}

// DefaultConfig returns default matcher configuration
func DefaultConfig() Config {
	return Config{
		TopK:        6,
		Parallelism: 4,
	}
}

// Service matches vents against profiles
type Service struct {
	embedder Embedder
	profiles []model.Profile
	vents    VentStore
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	// vectors holds profile embeddings once computed
	mu      sync.Mutex
	vectors [][]float32
}

// New creates a new matcher service
func New(embedder Embedder, profiles []model.Profile, vents VentStore, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaults.Parallelism
	}
	return &Service{
		embedder: embedder,
		profiles: profiles,
		vents:    vents,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Profiles returns the catalog
func (s *Service) Profiles() []model.Profile {
	return append([]model.Profile(nil), s.profiles...)
}

// Match stores vent with its embedding and returns the top profiles for
// it, most similar first. Each profile's compatibility score is replaced by
// the similarity as a percentage. Nothing is matched if the vent cannot be
// stored.
func (s *Service) Match(ctx context.Context, vent string) ([]model.Match, error) {
	vent = strings.TrimSpace(vent)
	if vent == "" {
		return nil, model.ErrEmptyVent
	}
	if len(s.profiles) == 0 {
		return nil, model.ErrNoProfiles
	}

	profileVectors, err := s.profileVectors(ctx)
	if err != nil {
		return nil, err
	}
	ventVectors, err := s.embedder.Embed(ctx, []string{vent})
	if err != nil {
		return nil, fmt.Errorf("embed vent: %w", err)
	}
	if len(ventVectors) != 1 {
		return nil, fmt.Errorf("embed vent: got %d vectors", len(ventVectors))
	}

	stored := &model.Vent{
		ID:        model.VentID(uuid.NewString()),
		Text:      vent,
		Embedding: ventVectors[0],
		CreatedAt: s.clock.Now(),
	}
	if err := s.vents.SaveVent(ctx, stored); err != nil {
		return nil, fmt.Errorf("save vent: %w", err)
	}

	matches := make([]model.Match, 0, len(s.profiles))
	for i, p := range s.profiles {
		similarity, err := CosineSimilarity(ventVectors[0], profileVectors[i])
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		p.CompatibilityScore = int(similarity * 100)
		matches = append(matches, model.Match{Profile: p, Similarity: similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > s.cfg.TopK {
		matches = matches[:s.cfg.TopK]
	}

	s.logger.InfoContext(ctx, "matched vent",
		slog.String("vent_id", string(stored.ID)),
		slog.Int("matches", len(matches)),
		slog.String("top", matches[0].Name),
	)
	return matches, nil
}

// profileVectors embeds the catalog on first use. A failed attempt is
// retried on the next call.
func (s *Service) profileVectors(ctx context.Context) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vectors != nil {
		return s.vectors, nil
	}

	vectors := make([][]float32, len(s.profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i, p := range s.profiles {
		g.Go(func() error {
			out, err := s.embedder.Embed(gctx, []string{p.Description})
			if err != nil {
				return fmt.Errorf("embed profile %q: %w", p.Name, err)
			}
			if len(out) != 1 {
				return fmt.Errorf("embed profile %q: got %d vectors", p.Name, len(out))
			}
			vectors[i] = out[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.vectors = vectors
	s.logger.InfoContext(ctx, "profile embeddings ready", slog.Int("profiles", len(vectors)))
	return vectors, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// if either has zero magnitude
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d != %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

const sortLookupConcurrency = 4

type CityStore interface {
	Get(ctx context.Context, city string) (model.CityCoordinate, error)
	Put(ctx context.Context, c model.CityCoordinate) error
}

type Geocoder interface {
	Geocode(ctx context.Context, city string) (model.Point, error)
}

// Annotated is a profile with its distance from the requester's city, when both are known.
type Annotated struct {
	Profile    model.Profile
	DistanceKM *int
}

type lookup struct {
	done  chan struct{}
	point model.Point
	ok    bool
}

type Resolver struct {
	cache     CityStore
	geocoder  Geocoder
	neighbors Neighbors
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]*lookup
}

func NewResolver(cache CityStore, geocoder Geocoder, neighbors Neighbors, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if neighbors == nil {
		neighbors = Neighbors{}
	}
	return &Resolver{
		cache:     cache,
		geocoder:  geocoder,
		neighbors: neighbors,
		logger:    logger,
		now:       time.Now,
		inflight:  make(map[string]*lookup),
	}
}

// WithNeighbors swaps the adjacency table.
func (r *Resolver) WithNeighbors(neighbors Neighbors) *Resolver {
	if neighbors == nil {
		neighbors = Neighbors{}
	}
	r.neighbors = neighbors
	return r
}

func (r *Resolver) Neighbors(city string) []string {
	return r.neighbors.Of(city)
}

// CoordinatesFor resolves city through the cache, falling back to the geocoder on a miss.
// Failures are logged and reported as ok=false. Concurrent misses for one city share a single lookup.
func (r *Resolver) CoordinatesFor(ctx context.Context, city string) (model.Point, bool) {
	city = strings.TrimSpace(city)
	if city == "" {
		return model.Point{}, false
	}

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, city)
		if err == nil {
			return cached.Point, true
		}
		if !errors.Is(err, model.ErrCityNotCached) {
			r.logger.Warn("city cache lookup failed", zap.String("city", city), zap.Error(err))
		}
	}

	r.mu.Lock()
	if call, ok := r.inflight[city]; ok {
		r.mu.Unlock()
		select {
		case <-call.done:
			return call.point, call.ok
		case <-ctx.Done():
			return model.Point{}, false
		}
	}
	call := &lookup{done: make(chan struct{})}
	r.inflight[city] = call
	r.mu.Unlock()

	call.point, call.ok = r.geocode(ctx, city)

	r.mu.Lock()
	delete(r.inflight, city)
	r.mu.Unlock()
	close(call.done)

	return call.point, call.ok
}

func (r *Resolver) geocode(ctx context.Context, city string) (model.Point, bool) {
	// A lookup that finished between our cache miss and taking the slot already stored the city.
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, city); err == nil {
			return cached.Point, true
		}
	}
	if r.geocoder == nil {
		return model.Point{}, false
	}

	point, err := r.geocoder.Geocode(ctx, city)
	if err != nil {
		r.logger.Warn("geocode failed", zap.String("city", city), zap.Error(err))
		return model.Point{}, false
	}
	if err := validateCoordinates(point.Lat, point.Lon); err != nil {
		r.logger.Warn("geocoder returned invalid coordinates", zap.String("city", city), zap.Error(err))
		return model.Point{}, false
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, model.CityCoordinate{City: city, Point: point, CreatedAt: r.now().UTC()}); err != nil {
			r.logger.Warn("city cache write failed", zap.String("city", city), zap.Error(err))
		}
	}
	return point, true
}

// SortByDistance orders profiles by distance from origin. Profiles whose distance
// cannot be computed keep their relative order after all known distances.
func (r *Resolver) SortByDistance(ctx context.Context, origin string, profiles []model.Profile) []Annotated {
	out := make([]Annotated, len(profiles))
	for i, p := range profiles {
		out[i] = Annotated{Profile: p}
	}
	if len(profiles) == 0 {
		return out
	}

	originPoint, ok := r.CoordinatesFor(ctx, origin)
	if !ok {
		return out
	}

	points := r.resolveMany(ctx, uniqueCities(profiles))
	for i := range out {
		point, ok := points[strings.TrimSpace(out[i].Profile.City)]
		if !ok {
			continue
		}
		km := DistanceKM(originPoint.Lat, originPoint.Lon, point.Lat, point.Lon)
		out[i].DistanceKM = &km
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DistanceKM, out[j].DistanceKM
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out
}

func (r *Resolver) resolveMany(ctx context.Context, cities []string) map[string]model.Point {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, sortLookupConcurrency)
		points = make(map[string]model.Point, len(cities))
	)
	for _, city := range cities {
		wg.Add(1)
		sem <- struct{}{}
		go func(city string) {
			defer wg.Done()
			defer func() { <-sem }()

			point, ok := r.CoordinatesFor(ctx, city)
			if !ok {
				return
			}
			mu.Lock()
			points[city] = point
			mu.Unlock()
		}(city)
	}
	wg.Wait()
	return points
}

func uniqueCities(profiles []model.Profile) []string {
	seen := make(map[string]struct{}, len(profiles))
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		city := strings.TrimSpace(p.City)
		if city == "" {
			continue
		}
		if _, ok := seen[city]; ok {
			continue
		}
		seen[city] = struct{}{}
		out = append(out, city)
	}
	return out
}

// DistanceKM is the great-circle distance rounded to whole kilometers.
func DistanceKM(lat1, lon1, lat2, lon2 float64) int {
	return int(math.Round(haversineKM(lat1, lon1, lat2, lon2)))
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("invalid coordinates: %w", ErrValidation)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}
	return nil
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0

	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

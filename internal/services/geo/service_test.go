package geo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type memoryCityStore struct {
	mu    sync.Mutex
	items map[string]model.CityCoordinate
	puts  int
}

func newMemoryCityStore() *memoryCityStore {
	return &memoryCityStore{items: make(map[string]model.CityCoordinate)}
}

func (s *memoryCityStore) Get(_ context.Context, city string) (model.CityCoordinate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[city]
	if !ok {
		return model.CityCoordinate{}, model.ErrCityNotCached
	}
	return c, nil
}

func (s *memoryCityStore) Put(_ context.Context, c model.CityCoordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c.City] = c
	s.puts++
	return nil
}

type stubGeocoder struct {
	calls  atomic.Int32
	points map[string]model.Point
	err    error
	delay  time.Duration
}

func (g *stubGeocoder) Geocode(ctx context.Context, city string) (model.Point, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return model.Point{}, ctx.Err()
		}
	}
	if g.err != nil {
		return model.Point{}, g.err
	}
	p, ok := g.points[city]
	if !ok {
		return model.Point{}, errors.New("not found")
	}
	return p, nil
}

var testPoints = map[string]model.Point{
	"Москва":          {Lat: 55.7558, Lon: 37.6173},
	"Санкт-Петербург": {Lat: 59.9343, Lon: 30.3351},
	"Химки":           {Lat: 55.8970, Lon: 37.4297},
	"Тверь":           {Lat: 56.8587, Lon: 35.9176},
}

func TestDistanceKM(t *testing.T) {
	moscow := testPoints["Москва"]
	spb := testPoints["Санкт-Петербург"]

	got := DistanceKM(moscow.Lat, moscow.Lon, spb.Lat, spb.Lon)
	if got < 630 || got > 640 {
		t.Fatalf("unexpected moscow-spb distance: got %d want ~634", got)
	}
	if DistanceKM(moscow.Lat, moscow.Lon, moscow.Lat, moscow.Lon) != 0 {
		t.Fatalf("distance to self must be zero")
	}
}

func TestCoordinatesForHitsGeocoderOnce(t *testing.T) {
	store := newMemoryCityStore()
	geocoder := &stubGeocoder{points: testPoints}
	resolver := NewResolver(store, geocoder, nil, nil)

	ctx := context.Background()
	first, ok := resolver.CoordinatesFor(ctx, "Москва")
	if !ok {
		t.Fatalf("expected coordinates on first lookup")
	}
	second, ok := resolver.CoordinatesFor(ctx, "Москва")
	if !ok {
		t.Fatalf("expected coordinates on cached lookup")
	}

	if first != second {
		t.Fatalf("cached point differs: %v vs %v", first, second)
	}
	if got := geocoder.calls.Load(); got != 1 {
		t.Fatalf("unexpected geocoder calls: got %d want 1", got)
	}
	if store.puts != 1 {
		t.Fatalf("unexpected cache writes: got %d want 1", store.puts)
	}
}

func TestCoordinatesForCollapsesConcurrentMisses(t *testing.T) {
	geocoder := &stubGeocoder{points: testPoints, delay: 50 * time.Millisecond}
	resolver := NewResolver(newMemoryCityStore(), geocoder, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := resolver.CoordinatesFor(context.Background(), "Химки"); !ok {
				t.Errorf("expected coordinates for concurrent lookup")
			}
		}()
	}
	wg.Wait()

	if got := geocoder.calls.Load(); got != 1 {
		t.Fatalf("concurrent misses must share one geocode call, got %d", got)
	}
}

func TestCoordinatesForToleratesFailures(t *testing.T) {
	geocoder := &stubGeocoder{err: context.DeadlineExceeded}
	resolver := NewResolver(newMemoryCityStore(), geocoder, nil, nil)

	if _, ok := resolver.CoordinatesFor(context.Background(), "Москва"); ok {
		t.Fatalf("geocoder failure must report ok=false")
	}
	if _, ok := resolver.CoordinatesFor(context.Background(), "  "); ok {
		t.Fatalf("blank city must report ok=false")
	}
	if _, ok := NewResolver(nil, nil, nil, nil).CoordinatesFor(context.Background(), "Москва"); ok {
		t.Fatalf("resolver without collaborators must report ok=false")
	}
}

func TestSortByDistancePutsUnknownLast(t *testing.T) {
	resolver := NewResolver(newMemoryCityStore(), &stubGeocoder{points: testPoints}, nil, nil)

	profiles := []model.Profile{
		{TelegramID: 1, City: "Атлантида"},
		{TelegramID: 2, City: "Санкт-Петербург"},
		{TelegramID: 3, City: ""},
		{TelegramID: 4, City: "Химки"},
		{TelegramID: 5, City: "Тверь"},
	}

	got := resolver.SortByDistance(context.Background(), "Москва", profiles)

	wantOrder := []int64{4, 5, 2, 1, 3}
	for i, id := range wantOrder {
		if got[i].Profile.TelegramID != id {
			t.Fatalf("unexpected order at %d: got %d want %d", i, got[i].Profile.TelegramID, id)
		}
	}
	if got[0].DistanceKM == nil || *got[0].DistanceKM > 30 {
		t.Fatalf("unexpected khimki distance: %v", got[0].DistanceKM)
	}
	if got[3].DistanceKM != nil || got[4].DistanceKM != nil {
		t.Fatalf("unknown cities must have no distance")
	}
}

func TestSortByDistanceWithUnknownOriginKeepsOrder(t *testing.T) {
	resolver := NewResolver(newMemoryCityStore(), &stubGeocoder{points: testPoints}, nil, nil)

	profiles := []model.Profile{{TelegramID: 3, City: "Тверь"}, {TelegramID: 1, City: "Химки"}}
	got := resolver.SortByDistance(context.Background(), "Атлантида", profiles)

	if got[0].Profile.TelegramID != 3 || got[1].Profile.TelegramID != 1 {
		t.Fatalf("order must be kept when origin is unknown")
	}
}

func TestDefaultNeighborsTable(t *testing.T) {
	table, err := DefaultNeighbors()
	if err != nil {
		t.Fatalf("load default neighbors: %v", err)
	}

	found := false
	for _, city := range table.Of("Дубна") {
		if city == "Дмитров" {
			found = true
		}
	}
	if !found {
		t.Fatalf("dubna must list dmitrov as a neighbor, got %v", table.Of("Дубна"))
	}
	if len(table.Of("Москва")) == 0 {
		t.Fatalf("moscow must have neighbors")
	}
	if table.Of("Атлантида") != nil {
		t.Fatalf("unknown city must have no neighbors")
	}
}

func TestWithNeighborsReplacesTable(t *testing.T) {
	resolver := NewResolver(nil, nil, nil, nil).WithNeighbors(Neighbors{"A": {"B"}})
	if got := resolver.Neighbors("A"); len(got) != 1 || got[0] != "B" {
		t.Fatalf("unexpected neighbors: %v", got)
	}
}

func TestParseNeighborsDropsSelfAndBlank(t *testing.T) {
	table, err := ParseNeighbors([]byte(`"A": ["A", " B ", ""]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := table.Of("A"); len(got) != 1 || got[0] != "B" {
		t.Fatalf("unexpected cleaned neighbors: %v", got)
	}
}

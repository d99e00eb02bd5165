package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

var ErrNotFound = errors.New("city not found")

// Nominatim resolves city names through an OpenStreetMap Nominatim compatible endpoint.
type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewNominatim(httpClient *http.Client, baseURL, userAgent string) *Nominatim {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Nominatim{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the first match for city.
func (n *Nominatim) Geocode(ctx context.Context, city string) (model.Point, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return model.Point{}, ErrNotFound
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return model.Point{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return model.Point{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return model.Point{}, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&results); err != nil {
		return model.Point{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return model.Point{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}
	return model.Point{Lat: lat, Lon: lon}, nil
}

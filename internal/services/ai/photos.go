package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

const maxPhotoDownloadBytes = 10 << 20

var (
	errNotImage     = errors.New("photo is not an image")
	errNoPhotoRoute = errors.New("no way to resolve photo reference")
)

// candidatePhotos resolves each candidate's primary photo into an image URL for the vision model.
// Storage objects are inlined as data URLs; an empty entry means no photo could be obtained.
func (s *Service) candidatePhotos(ctx context.Context, candidates []model.Profile) []string {
	out := make([]string, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.PhotoConcurrency)
	for i, p := range candidates {
		ref := strings.TrimSpace(p.PrimaryPhoto())
		switch {
		case ref == "":
			continue
		case enums.MediaKindForKey(ref) == enums.MediaKindVideo:
			continue
		case isHTTPURL(ref):
			out[i] = ref
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id int64, ref string) {
			defer wg.Done()
			defer func() { <-sem }()

			fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.PhotoFetchTimeout)
			defer cancel()

			url, err := s.loadPhoto(fetchCtx, ref)
			if err != nil {
				s.logger.Debug("candidate photo unavailable", zap.Int64("user_id", id), zap.Error(err))
				return
			}
			out[i] = url
		}(i, p.TelegramID, ref)
	}
	wg.Wait()

	return out
}

// loadPhoto reads a storage key directly and falls back to the resolved photo URL.
// Telegram file ids carry no extension and go straight to the resolver.
func (s *Service) loadPhoto(ctx context.Context, ref string) (string, error) {
	var storageErr error
	if s.photos != nil && strings.Contains(ref, ".") {
		data, err := s.photos.FetchPhoto(ctx, ref)
		if err == nil {
			if url, ok := imageDataURL(data); ok {
				return url, nil
			}
			return "", errNotImage
		}
		storageErr = err
	}

	if s.links == nil {
		if storageErr != nil {
			return "", storageErr
		}
		return "", errNoPhotoRoute
	}

	link, err := s.links.ResolveRef(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("resolve photo ref: %w", errors.Join(storageErr, err))
	}
	data, err := s.download(ctx, link)
	if err != nil {
		return "", err
	}
	url, ok := imageDataURL(data)
	if !ok {
		return "", errNotImage
	}
	return url, nil
}

// download keeps resolved links server-side; Telegram file URLs embed the bot token.
func (s *Service) download(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("build photo request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read photo body: %w", err)
	}
	return data, nil
}

func imageDataURL(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", false
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

func isHTTPURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

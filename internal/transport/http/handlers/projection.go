package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	"github.com/babymaxMAX/lsj-love/internal/domain/rules"
	"github.com/babymaxMAX/lsj-love/internal/transport/http/dto"
)

// Projector renders profiles for clients. Stored photo references are never
// exposed: they become redirect paths under the API prefix.
type Projector struct {
	apiPrefix string
	now       func() time.Time
}

func NewProjector(apiPrefix string) *Projector {
	return &Projector{
		apiPrefix: strings.TrimRight(apiPrefix, "/"),
		now:       time.Now,
	}
}

func (p *Projector) Profile(m model.Profile) dto.ProfileResponse {
	id := m.TelegramID

	var photo string
	if primary := m.PrimaryPhoto(); primary != "" {
		photo = primary
		if !strings.HasPrefix(photo, "http") {
			photo = p.photoPath(id, -1)
		}
	}

	photos := make([]string, 0, len(m.Photos))
	mediaTypes := make([]string, 0, len(m.Photos))
	switch {
	case len(m.Photos) > 0:
		for i, key := range m.Photos {
			photos = append(photos, p.photoPath(id, i))
			mediaTypes = append(mediaTypes, string(enums.MediaKindForKey(key)))
		}
	case photo != "":
		photos = append(photos, p.photoPath(id, -1))
		mediaTypes = append(mediaTypes, string(enums.MediaKindImage))
	}

	resp := dto.ProfileResponse{
		TelegramID:      id,
		Name:            m.Name,
		Username:        optString(m.Username),
		Gender:          optString(string(m.Gender)),
		City:            optString(m.City),
		LookingFor:      optString(string(m.LookingFor)),
		About:           optString(m.About),
		Photo:           optString(photo),
		Photos:          photos,
		MediaTypes:      mediaTypes,
		IsActive:        m.IsActive,
		ReferralBalance: float64(m.ReferralBalance),
	}
	if m.Age > 0 {
		age := m.Age
		resp.Age = &age
	}
	if m.LastSeen != nil {
		seen := m.LastSeen.UTC().Format(time.RFC3339)
		resp.LastSeen = &seen
	}
	if len(m.ProfileAnswers) > 0 {
		resp.ProfileAnswers = m.ProfileAnswers
	}
	if active := rules.ActivePremiumType(m, p.now()); active != enums.PremiumNone {
		resp.PremiumType = optString(string(active))
	}
	return resp
}

func (p *Projector) Profiles(items []model.Profile) []dto.ProfileResponse {
	out := make([]dto.ProfileResponse, 0, len(items))
	for _, item := range items {
		out = append(out, p.Profile(item))
	}
	return out
}

func (p *Projector) photoPath(userID int64, index int) string {
	if index < 0 {
		return fmt.Sprintf("%s/users/%d/photo", p.apiPrefix, userID)
	}
	return fmt.Sprintf("%s/users/%d/photo/%d", p.apiPrefix, userID, index)
}

func optString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

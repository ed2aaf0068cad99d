package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bible365/bible365/internal/model"
)

const formatVersion = 4

var errUnknownFormat = errors.New("unknown profile format")

type envelope struct {
	Version  int                             `json:"version"`
	Profiles map[string]model.ReadingProfile `json:"profiles"`
}

func encodeProfiles(profiles map[string]model.ReadingProfile) ([]byte, error) {
	return json.Marshal(envelope{Version: formatVersion, Profiles: profiles})
}

// decodeProfiles reads the current envelope or, failing that, the older
// single-profile layout, which becomes the personal profile. migrated is true
// when the legacy layout was read.
func decodeProfiles(data []byte) (profiles map[string]model.ReadingProfile, migrated bool, err error) {
	if len(data) == 0 {
		return map[string]model.ReadingProfile{}, false, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, false, fmt.Errorf("failed to decode profiles: %w", err)
	}

	if _, ok := top["profiles"]; ok {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, false, fmt.Errorf("failed to decode profiles: %w", err)
		}
		if env.Profiles == nil {
			env.Profiles = map[string]model.ReadingProfile{}
		}
		for key, p := range env.Profiles {
			env.Profiles[key] = withMaps(p)
		}
		return env.Profiles, false, nil
	}

	if isLegacyProfile(top) {
		var p model.ReadingProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, false, fmt.Errorf("failed to decode legacy profile: %w", err)
		}
		return map[string]model.ReadingProfile{
			model.ModeKey(model.Personal{}): withMaps(p),
		}, true, nil
	}
	return nil, false, errUnknownFormat
}

func isLegacyProfile(top map[string]json.RawMessage) bool {
	for _, k := range []string{"verseProgressById", "bookProgressByCode", "global"} {
		if _, ok := top[k]; ok {
			return true
		}
	}
	return false
}

func withMaps(p model.ReadingProfile) model.ReadingProfile {
	if p.VerseProgressByID == nil {
		p.VerseProgressByID = map[string]model.VerseProgress{}
	}
	if p.BookProgressByCode == nil {
		p.BookProgressByCode = map[string]model.BookProgressSummary{}
	}
	return p
}

package features

import (
	"time"

	"github.com/okian/sentinel/internal/domain/model"
)

// ExtractAccount derives metadata features from the account record.
// now is passed in so the extractor stays a pure function.
func ExtractAccount(acc model.Account, now time.Time) Record {
	ageDays := int64(now.Sub(acc.CreatedAt).Hours() / hoursInDay)
	if ageDays < 0 {
		// Creation timestamp in the future means clock skew upstream;
		// fail closed to zero rather than a negative age.
		ageDays = 0
	}

	total := acc.TotalKarma()

	karmaPerDay := float64(total) / float64(max(ageDays, 1))

	postRatio := 0.0
	if total > 0 {
		postRatio = float64(acc.PostKarma) / float64(total)
	}

	return Record{
		AccountAgeDays: float64(ageDays),
		KarmaPerDay:    karmaPerDay,
		PostKarmaRatio: postRatio,
		TotalKarma:     float64(total),
		VerifiedEmail:  boolFeature(acc.Verified),
		HasPremium:     boolFeature(acc.Premium),
		TrophyCount:    float64(acc.Trophies),
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

package features

import (
	"fmt"
	"time"

	"github.com/okian/sentinel/internal/domain/model"
)

// Extract runs all three extractors over the account and aggregates their
// outputs into one schema-complete record.
func Extract(acc model.Account, now time.Time) (Record, error) {
	return Aggregate(
		ExtractAccount(acc, now),
		ExtractBehavior(acc),
		ExtractLinguistic(acc),
	)
}

// Aggregate merges the three partial records into one record keyed by the
// fixed schema. It is a pure union: no numeric transformation happens
// here. It fails when an extractor emits a key outside its owned
// partition or when any schema key is absent from the union.
func Aggregate(account, behavior, linguistic Record) (Record, error) {
	merged := make(Record, len(accountKeys)+len(behaviorKeys)+len(linguisticKeys))

	for _, part := range []struct {
		name  string
		owned []string
		rec   Record
	}{
		{"account", accountKeys, account},
		{"behavior", behaviorKeys, behavior},
		{"linguistic", linguisticKeys, linguistic},
	} {
		owned := make(map[string]struct{}, len(part.owned))
		for _, k := range part.owned {
			owned[k] = struct{}{}
		}
		for k, v := range part.rec {
			if _, ok := owned[k]; !ok {
				return nil, fmt.Errorf("%w: %s extractor emitted %q", ErrSchemaCollision, part.name, k)
			}
			merged[k] = v
		}
	}

	for _, k := range Schema() {
		if _, ok := merged[k]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingFeature, k)
		}
	}
	return merged, nil
}

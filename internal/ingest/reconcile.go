package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roshan4665/fundfolio/internal/models"
)

// ErrNoFundData distinguishes "no catalog because every source failed" from
// a legitimately empty catalog.
var ErrNoFundData = errors.New("no fund data: all sources failed to load")

// Source is one fund sheet's ingestion result, in merge priority order.
// Err is the source-level transport/parse failure, if any; a failed source
// contributes no records but does not abort reconciliation on its own.
type Source struct {
	Label   string
	Records []models.FundRecord
	Err     error
}

// Reconcile folds ordered per-source record lists into the canonical fund
// list. Records are keyed by fund name; a later source's non-absent value for
// a field overrides an earlier source's value (last write wins per field),
// while fields the later source does not report retain the earlier value.
// Fund order is first-seen order, which makes the generated ids stable for
// identical input orderings.
//
// Returns ErrNoFundData when every source carries an error and nothing was
// merged; partial failures yield a reduced but usable catalog.
func Reconcile(sources []Source) ([]models.MutualFund, error) {
	merged := make(map[string]models.FundRecord)
	var order []string

	allFailed := len(sources) > 0
	for _, src := range sources {
		if src.Err != nil {
			continue
		}
		allFailed = false
		for _, record := range src.Records {
			name := record.Name()
			if name == "" {
				continue
			}
			accum, seen := merged[name]
			if !seen {
				accum = make(models.FundRecord, len(record))
				merged[name] = accum
				order = append(order, name)
			}
			for field, value := range record {
				accum[field] = value
			}
		}
	}

	if allFailed && len(order) == 0 {
		return nil, ErrNoFundData
	}

	funds := make([]models.MutualFund, 0, len(order))
	for i, name := range order {
		fund := models.MutualFund{ID: fundID(name, i)}
		for field, value := range merged[name] {
			fund.SetField(field, value)
		}
		funds = append(funds, fund)
	}
	return funds, nil
}

// fundID derives a stable identifier from the fund name's slug and its
// ordinal position in first-seen iteration order.
func fundID(name string, ordinal int) string {
	slug := slugify(name)
	if slug == "" {
		slug = "unknown"
	}
	return fmt.Sprintf("%s-%d", slug, ordinal)
}

// slugify lowercases the name and strips every non-alphanumeric character.
func slugify(name string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(name) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

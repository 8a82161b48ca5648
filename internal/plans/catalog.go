package plans

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type tier struct {
	price       int64
	validity    string
	data        string
	description string
}

var tiers = []tier{
	{19, "1 day", "1GB", "1GB data for 1 day"},
	{24, "1 day", "2GB", "2GB data for 1 day"},
	{49, "7 days", "6GB", "6GB total data for 7 days"},
	{79, "7 days", "1GB/day", "1GB per day for 7 days"},
	{99, "28 days", "2GB/day", "2GB per day for 28 days"},
	{149, "28 days", "2GB/day", "2GB per day for 28 days"},
	{179, "28 days", "2GB/day", "2GB per day for 28 days"},
	{199, "28 days", "2GB/day", "2GB per day for 28 days"},
	{219, "28 days", "1.5GB/day", "1.5GB per day for 28 days"},
	{239, "28 days", "2GB/day", "2GB per day for 28 days"},
	{249, "28 days", "2GB/day", "2GB per day for 28 days"},
	{299, "28 days", "2GB/day", "2GB per day for 28 days"},
	{319, "28 days", "2.5GB/day", "2.5GB per day for 28 days"},
	{349, "28 days", "3GB/day", "3GB per day for 28 days"},
	{399, "28 days", "2GB/day", "2GB per day for 28 days"},
	{449, "28 days", "2GB/day", "2GB per day for 28 days"},
	{499, "28 days", "2GB/day", "2GB per day for 28 days"},
	{549, "28 days", "3GB/day", "3GB per day for 28 days"},
	{599, "56 days", "2GB/day", "2GB per day for 56 days"},
	{666, "28 days", "2GB/day", "2GB per day for 28 days"},
	{699, "56 days", "2GB/day", "2GB per day for 56 days"},
	{749, "28 days", "3GB/day", "3GB per day for 28 days"},
	{999, "84 days", "2GB/day", "2GB per day for 84 days"},
	{1299, "84 days", "2GB/day", "2GB per day for 84 days"},
	{1499, "84 days", "2GB/day", "2GB per day for 84 days"},
	{1799, "365 days", "2GB/day", "2GB per day for 365 days"},
	{2999, "365 days", "2GB/day", "2GB per day for 365 days"},
}

// DefaultCatalog returns the seed plans: every price tier for every operator.
func DefaultCatalog() []CreateInput {
	out := make([]CreateInput, 0, len(Operators)*len(tiers))
	for _, op := range Operators {
		for _, t := range tiers {
			out = append(out, CreateInput{
				Operator:    op,
				Name:        fmt.Sprintf("%s ₹%d", op, t.price),
				Price:       decimal.NewFromInt(t.price),
				Validity:    t.validity,
				Data:        t.data,
				Talktime:    DefaultTalktime,
				Description: t.description,
			})
		}
	}
	return out
}

package approval

import "github.com/shopspring/decimal"

// DefaultRules matriz aplicada cuando no se configura APPROVAL_MATRIX_FILE.
func DefaultRules() []Rule {
	return []Rule{
		{
			ActionPattern:     "ap:payment",
			MinAmount:         decimal.NewFromInt(10_000),
			RequiredApprovals: []string{"controller", "cfo"},
			Policy:            PolicyTwoStep,
		},
		{
			ActionPattern:     "*:post",
			MinAmount:         decimal.NewFromInt(50_000),
			RequiredApprovals: []string{"controller"},
			Policy:            PolicySingleStep,
		},
		{
			ActionPattern:     "*:reverse",
			MinAmount:         decimal.Zero,
			RequiredApprovals: []string{"controller"},
			Policy:            PolicyTwoStep,
		},
	}
}

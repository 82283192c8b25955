package saga

import "math/rand"

// BranchSelector picks the destination branches for a dispatch. The choice
// is a placeholder business rule, kept behind an interface so a real
// allocation policy (or a deterministic one in tests) can replace it
// without touching the dispatch logic.
type BranchSelector interface {
	Select(orderID string) []string
}

// RandomBranchSelector picks two or three distinct branches from a fixed
// candidate set.
type RandomBranchSelector struct {
	Candidates []string
}

func (s *RandomBranchSelector) Select(string) []string {
	n := len(s.Candidates)
	if n <= 2 {
		return append([]string(nil), s.Candidates...)
	}
	k := 2 + rand.Intn(2)
	if k > n {
		k = n
	}
	picked := make([]string, 0, k)
	for _, i := range rand.Perm(n)[:k] {
		picked = append(picked, s.Candidates[i])
	}
	return picked
}

// FixedBranchSelector always returns the same branches.
type FixedBranchSelector struct {
	Branches []string
}

func (s *FixedBranchSelector) Select(string) []string {
	return append([]string(nil), s.Branches...)
}

package domain_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armagg/coin-payments/internal/core/domain"
)

func TestNewActivitySequence(t *testing.T) {
	seq := domain.NewActivitySequence(12345, 7, domain.ActivityOut)
	require.Equal(t, "000000012345.00000007.00", seq)

	seq = domain.NewActivitySequence(12345, 7, domain.ActivityIn)
	require.Equal(t, "000000012345.00000007.01", seq)
}

func TestActivitySequenceTotalOrder(t *testing.T) {
	// lexicographic order must match (ledger, index, direction) order, with
	// outs preceding ins at the same position
	sequences := []string{
		domain.NewActivitySequence(2, 1, domain.ActivityIn),
		domain.NewActivitySequence(1, 30, domain.ActivityOut),
		domain.NewActivitySequence(10, 0, domain.ActivityOut),
		domain.NewActivitySequence(1, 4, domain.ActivityIn),
		domain.NewActivitySequence(1, 4, domain.ActivityOut),
	}
	sorted := make([]string, len(sequences))
	copy(sorted, sequences)
	sort.Strings(sorted)

	require.Equal(t, []string{
		domain.NewActivitySequence(1, 4, domain.ActivityOut),
		domain.NewActivitySequence(1, 4, domain.ActivityIn),
		domain.NewActivitySequence(1, 30, domain.ActivityOut),
		domain.NewActivitySequence(2, 1, domain.ActivityIn),
		domain.NewActivitySequence(10, 0, domain.ActivityOut),
	}, sorted)
}

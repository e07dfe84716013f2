package testcommon

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	dvoteutil "go.vocdoni.io/dvote/util"

	"github.com/Onyex101/secureballot-sub007/config"
	"github.com/Onyex101/secureballot-sub007/types"
)

// RandomKeysConfig creates a throwaway escrow key and tally capability
func RandomKeysConfig() *config.Keys {
	return &config.Keys{
		EscrowKey:       dvoteutil.RandomHex(32),
		TallyCapability: dvoteutil.RandomHex(16),
	}
}

// CreatePollingUnits creates a given number of polling units with
// random unique codes
func CreatePollingUnits(size int) []*types.PollingUnit {
	units := make([]*types.PollingUnit, size)
	for i := 0; i < size; i++ {
		units[i] = &types.PollingUnit{
			ID:   uuid.New().String(),
			Code: fmt.Sprintf("PU-%06d", rand.Intn(1000000)),
			Name: fmt.Sprintf("Polling Unit %d", i),
		}
	}
	return units
}

// CreateVoters creates a given number of active voters assigned to the
// given polling unit code
func CreateVoters(size int, pollingUnitCode string) []*types.Voter {
	voters := make([]*types.Voter, size)
	for i := 0; i < size; i++ {
		voters[i] = &types.Voter{
			ID:              uuid.New().String(),
			IsActive:        true,
			PollingUnitCode: pollingUnitCode,
			PublicKey:       []byte{},
		}
	}
	return voters
}

// CreateOpenElections creates a given number of active elections whose
// voting window contains the current time
func CreateOpenElections(size int) []*types.Election {
	elections := make([]*types.Election, size)
	now := time.Now()
	for i := 0; i < size; i++ {
		elections[i] = &types.Election{
			ID:        uuid.New().String(),
			Name:      fmt.Sprintf("Election %d", rand.Intn(1000000)),
			IsActive:  true,
			Status:    types.ElectionStatusActive,
			StartDate: now.Add(-time.Hour),
			EndDate:   now.Add(time.Hour),
		}
	}
	return elections
}

// CreateCandidates creates a given number of approved active candidates
// for the given election
func CreateCandidates(size int, electionID string) []*types.Candidate {
	candidates := make([]*types.Candidate, size)
	for i := 0; i < size; i++ {
		candidates[i] = &types.Candidate{
			ID:             uuid.New().String(),
			ElectionID:     electionID,
			Name:           fmt.Sprintf("Candidate %d", i),
			IsActive:       true,
			ApprovalStatus: "approved",
		}
	}
	return candidates
}

package zkmember

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taurusgroup/zkvote/internal/params"
)

// ErrVerification is matched by every *VerificationError.
var ErrVerification = errors.New("zkmember: verification failed")

// Failure is a set of verification checks.
type Failure uint8

const (
	// FailMalformed means a field of the proof is missing or out of range.
	// No other check is attempted in that case.
	FailMalformed Failure = 1 << iota
	// FailChallengeHash means EC differs from the hash of the commitments.
	FailChallengeHash
	// FailChallengeSum means the challenges do not add up to EC.
	FailChallengeSum
	failBranch0
)

// FailBranch returns the check zₖᴺ = aₖ⋅uₖᵉᵏ (mod N²) of branch k.
func FailBranch(k int) Failure {
	return failBranch0 << k
}

func (f Failure) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	if f&FailMalformed != 0 {
		names = append(names, "malformed proof")
	}
	if f&FailChallengeHash != 0 {
		names = append(names, "challenge hash mismatch")
	}
	if f&FailChallengeSum != 0 {
		names = append(names, "challenge sum mismatch")
	}
	for k := 0; k < params.Candidates; k++ {
		if f&FailBranch(k) != 0 {
			names = append(names, fmt.Sprintf("branch %d equation", k))
		}
	}
	return strings.Join(names, ", ")
}

// VerificationError is returned by Proof.Verify when the proof is rejected.
type VerificationError struct {
	Failures Failure
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrVerification, e.Failures)
}

// Is makes errors.Is(err, ErrVerification) hold.
func (e *VerificationError) Is(target error) bool {
	return target == ErrVerification
}

// Has returns true if every check in f failed.
func (e *VerificationError) Has(f Failure) bool {
	return e.Failures&f == f
}

// BranchFailed returns true if the equation of branch k failed.
func (e *VerificationError) BranchFailed(k int) bool {
	return e.Has(FailBranch(k))
}

// Failures extracts the failed checks from an error returned by Proof.Verify.
// It returns 0 if err is not a *VerificationError.
func Failures(err error) Failure {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Failures
	}
	return 0
}

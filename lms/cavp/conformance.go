package cavp

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/ericeilertson/lms-hss/lms/lms"
)

// Mismatch describes one test case whose actual verification outcome
// did not match the vector file's expected outcome.
type Mismatch struct {
	TestGroup int
	TestCase  int
	Expected  bool
	Actual    bool
	Err       error
}

func (m *Mismatch) Error() string {
	if m.Err != nil {
		return fmt.Sprintf("group %d case %d: %v", m.TestGroup, m.TestCase, m.Err)
	}
	return fmt.Sprintf("group %d case %d: expected testPassed=%v, got %v", m.TestGroup, m.TestCase, m.Expected, m.Actual)
}

// RunConformance verifies every test case in vf and returns a
// *multierror.Error aggregating every mismatch found, or nil if every
// case's actual verification outcome matched its expected outcome.
func RunConformance(vf *VectorFile) error {
	var result *multierror.Error

	for _, group := range vf.TestGroups {
		keyBytes, err := group.PublicKeyBytes()
		if err != nil {
			result = multierror.Append(result, &Mismatch{TestGroup: group.TgID, Err: err})
			continue
		}
		pub, err := lms.LmsPublicKeyFromBytes(keyBytes)
		if err != nil {
			result = multierror.Append(result, &Mismatch{TestGroup: group.TgID, Err: fmt.Errorf("bad public key: %w", err)})
			continue
		}

		for _, tc := range group.Tests {
			actual, err := verifyCase(&pub, &tc)
			if err != nil {
				result = multierror.Append(result, &Mismatch{
					TestGroup: group.TgID,
					TestCase:  tc.TcID,
					Expected:  tc.TestPassed,
					Err:       err,
				})
				continue
			}
			if actual != tc.TestPassed {
				result = multierror.Append(result, &Mismatch{
					TestGroup: group.TgID,
					TestCase:  tc.TcID,
					Expected:  tc.TestPassed,
					Actual:    actual,
				})
			}
		}
	}

	return result.ErrorOrNil()
}

func verifyCase(pub *lms.LmsPublicKey, tc *TestCase) (bool, error) {
	msg, err := tc.MessageBytes()
	if err != nil {
		return false, err
	}
	sigBytes, err := tc.SignatureBytes()
	if err != nil {
		return false, err
	}
	sig, err := lms.LmsSignatureFromBytes(sigBytes)
	if err != nil {
		// A signature that fails to parse is a verification failure,
		// not a harness error: a malformed-signature vector expects
		// testPassed=false.
		return false, nil
	}
	return pub.Verify(msg, sig), nil
}

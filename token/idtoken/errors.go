package idtoken

import (
	"fmt"

	errs "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/errors"
)

// Stage is the step of verification that rejected a token.
type Stage string

const (
	StageDecode Stage = "decode"
	StageKey    Stage = "key"
	StageVerify Stage = "verify"
	StageClaims Stage = "claims"
	StageACR    Stage = "acr"
)

type VerificationError struct {
	Stage Stage
	Err   error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("id token rejected at %s: %v", e.Stage, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func (e *VerificationError) Is(target error) bool {
	return target == errs.ErrIdentityVerification
}

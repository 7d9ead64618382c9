package auth

import (
	"errors"
	"fmt"

	errs "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/errors"
)

var (
	MissingIdentityErr  = errors.New("request carries no trusted identity")
	NoAuthResultErr     = errors.New("authentication produced no result")
	MockModeDisabledErr = fmt.Errorf("mock session presented while mock mode is disabled: %w", errs.ErrConfiguration)
	MissingIDTokenErr   = fmt.Errorf("real provider acquisition requires an id token: %w", errs.ErrMissingCredential)
	MissingAuthCodeErr  = fmt.Errorf("mock provider acquisition requires an authorization code: %w", errs.ErrMissingCredential)
)

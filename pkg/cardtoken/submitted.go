package cardtoken

import (
	"context"

	"github.com/amirasaad/paygate/pkg/domain"
)

// Submitted is the outcome of a browser-side secure-field tokenization,
// posted to the server. It satisfies SecureFields so server-side checkout
// runs the same validation and error translation as the browser.
type Submitted struct {
	Token      domain.CardToken
	ErrorCodes []string
}

// CreateCardToken returns the submitted token, or a CodedError when the
// browser reported processor codes.
func (s Submitted) CreateCardToken(_ context.Context, _ CardholderData) (*domain.CardToken, error) {
	if len(s.ErrorCodes) > 0 {
		return nil, &CodedError{Codes: s.ErrorCodes}
	}
	tok := s.Token
	return &tok, nil
}

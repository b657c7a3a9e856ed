// Package cardtoken exchanges cardholder data for a single-use card token.
// Card number, expiry and CVV live only in the processor's isolated secure
// fields; this package never sees them.
package cardtoken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amirasaad/paygate/pkg/domain"
)

// Identification document types.
const (
	DocCPF  = "CPF"
	DocCNPJ = "CNPJ"
)

var docDigits = map[string]int{DocCPF: 11, DocCNPJ: 14}

// CardholderData is the non-sensitive part of a card form.
type CardholderData struct {
	Name                 string
	IdentificationType   string
	IdentificationNumber string
}

// SecureFields is the already-mounted set of isolated card inputs.
type SecureFields interface {
	CreateCardToken(ctx context.Context, holder CardholderData) (*domain.CardToken, error)
}

// CodedError is returned by SecureFields when the processor rejects input.
type CodedError struct {
	Codes []string
}

func (e *CodedError) Error() string {
	return "card tokenization rejected: " + strings.Join(e.Codes, ",")
}

// TokenizationError carries the user-facing message for a failed
// tokenization. Code is the first processor code, if any.
type TokenizationError struct {
	Code    string
	Message string
	Cause   error
}

func (e *TokenizationError) Error() string {
	if e.Code == "" {
		return "tokenization failed: " + e.Message
	}
	return fmt.Sprintf("tokenization failed (%s): %s", e.Code, e.Message)
}

func (e *TokenizationError) Unwrap() error { return e.Cause }

// Tokenizer validates cardholder data and requests a token.
type Tokenizer struct {
	fields SecureFields
	logger *slog.Logger
}

// New creates a Tokenizer over fields.
func New(fields SecureFields, logger *slog.Logger) *Tokenizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tokenizer{fields: fields, logger: logger.With("component", "card-tokenizer")}
}

// Tokenize validates holder and exchanges it for a token. Validation
// failures are domain.ValidationErrors and never reach the secure fields.
func (t *Tokenizer) Tokenize(ctx context.Context, holder CardholderData) (*domain.CardToken, error) {
	normalized, err := Validate(holder)
	if err != nil {
		return nil, err
	}

	token, err := t.fields.CreateCardToken(ctx, normalized)
	if err != nil {
		tokErr := translate(err)
		t.logger.Warn("card tokenization failed", "code", tokErr.Code, "error", err)
		return nil, tokErr
	}
	if err := checkToken(token); err != nil {
		t.logger.Error("secure fields returned an invalid token", "error", err)
		return nil, &TokenizationError{Message: GenericMessage, Cause: err}
	}

	t.logger.Info("💳 card tokenized",
		"payment_method_id", token.PaymentMethodID,
		"last_four", token.LastFourDigits,
	)
	return token, nil
}

// Validate checks and normalizes cardholder data.
func Validate(holder CardholderData) (CardholderData, error) {
	var errs domain.ValidationErrors

	holder.Name = strings.Join(strings.Fields(holder.Name), " ")
	if utf8.RuneCountInString(holder.Name) < 3 {
		errs.Add("cardholderName", "Informe o nome impresso no cartão (mínimo 3 caracteres).")
	}

	holder.IdentificationType = strings.ToUpper(strings.TrimSpace(holder.IdentificationType))
	want, ok := docDigits[holder.IdentificationType]
	if !ok {
		errs.Add("identificationType", "Escolha CPF ou CNPJ.")
	}

	holder.IdentificationNumber = Digits(holder.IdentificationNumber)
	if ok && len(holder.IdentificationNumber) != want {
		errs.Add("identificationNumber",
			fmt.Sprintf("O %s deve ter %d dígitos.", holder.IdentificationType, want))
	}

	return holder, errs.Err()
}

// Digits drops every non-digit rune.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func translate(err error) *TokenizationError {
	var coded *CodedError
	if errors.As(err, &coded) && len(coded.Codes) > 0 {
		for _, code := range coded.Codes {
			if Known(code) {
				return &TokenizationError{Code: code, Message: Message(code), Cause: err}
			}
		}
		return &TokenizationError{Code: coded.Codes[0], Message: GenericMessage, Cause: err}
	}
	return &TokenizationError{Message: GenericMessage, Cause: err}
}

func checkToken(tok *domain.CardToken) error {
	if tok == nil || strings.TrimSpace(tok.TokenID) == "" {
		return errors.New("empty token id")
	}
	if len(tok.FirstSixDigits) != 6 || !allDigits(tok.FirstSixDigits) {
		return errors.New("first six digits must be 6 digits")
	}
	if len(tok.LastFourDigits) != 4 || !allDigits(tok.LastFourDigits) {
		return errors.New("last four digits must be 4 digits")
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cinehub/booking-engine/internal/domain"
)

const (
	HeaderClientID  = "X-Client-Id"
	HeaderAPIKey    = "X-Api-Key"
	HeaderSignature = "X-Signature"
)

// TransferNotification is the payload the payment provider posts when a
// bank transfer lands on the receiving account.
type TransferNotification struct {
	Reference     string          `json:"reference"`
	Content       string          `json:"content"`
	Amount        decimal.Decimal `json:"amount"`
	TransferredAt time.Time       `json:"transferredAt"`
}

// WebhookVerifier authenticates inbound payment notifications with the
// credentials shared with the provider.
type WebhookVerifier struct {
	clientID    string
	apiKey      string
	checksumKey string
}

func NewWebhookVerifier(clientID, apiKey, checksumKey string) *WebhookVerifier {
	return &WebhookVerifier{
		clientID:    clientID,
		apiKey:      apiKey,
		checksumKey: checksumKey,
	}
}

// Verify checks the provider credentials and the HMAC-SHA256 signature over
// the raw request body. All comparisons are constant time.
func (v *WebhookVerifier) Verify(header http.Header, body []byte) error {
	clientOK := subtle.ConstantTimeCompare([]byte(header.Get(HeaderClientID)), []byte(v.clientID)) == 1
	keyOK := subtle.ConstantTimeCompare([]byte(header.Get(HeaderAPIKey)), []byte(v.apiKey)) == 1

	mac := hmac.New(sha256.New, []byte(v.checksumKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	signatureOK := hmac.Equal([]byte(strings.ToLower(header.Get(HeaderSignature))), []byte(expected))

	if !clientOK || !keyOK || !signatureOK {
		return domain.ErrPaymentVerification
	}

	return nil
}

// Sign computes the signature for a body, used by tests and by outbound
// reconciliation requests.
func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(v.checksumKey))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

// ParseNotification decodes a verified notification body.
func ParseNotification(body []byte) (*TransferNotification, error) {
	var notification TransferNotification

	err := json.Unmarshal(body, &notification)
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

// ExtractBookingCode finds the booking code inside a free-form transfer
// note. Banks wrap the note with their own text, so the code is located by
// its prefix and read until the first non-alphanumeric character.
func ExtractBookingCode(content string) (string, bool) {
	idx := strings.Index(strings.ToUpper(content), transferPrefix)
	if idx < 0 {
		return "", false
	}

	rest := content[idx+len(transferPrefix):]

	end := 0
	for end < len(rest) {
		c := rest[end]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			break
		}
		end++
	}

	if end == 0 {
		return "", false
	}

	return strings.ToUpper(rest[:end]), true
}

package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BankAccount is the receiving account rendered into every payment QR.
type BankAccount struct {
	BIN           string
	AccountNumber string
	AccountName   string
	City          string
}

const (
	napasAID               = "A000000727"
	serviceAccountTransfer = "QRIBFTTA"
	currencyVND            = "704"
	transferPrefix         = "CB-"
)

// TransferContent builds the wire transfer note a customer must include so
// the incoming payment can be matched back to its booking.
func TransferContent(bookingCode string) string {
	return transferPrefix + bookingCode
}

// BuildQRPayload renders the NAPAS VietQR EMV payload for a dynamic
// account-to-account transfer of the given amount, tagged with the booking's
// transfer content.
func BuildQRPayload(account BankAccount, amount decimal.Decimal, content string) string {
	merchantInfo := tlv("00", napasAID) +
		tlv("01", tlv("00", account.BIN)+tlv("01", account.AccountNumber)) +
		tlv("02", serviceAccountTransfer)

	var b strings.Builder
	b.WriteString(tlv("00", "01"))
	b.WriteString(tlv("01", "12"))
	b.WriteString(tlv("38", merchantInfo))
	b.WriteString(tlv("53", currencyVND))
	b.WriteString(tlv("54", amount.String()))
	b.WriteString(tlv("58", "VN"))
	b.WriteString(tlv("59", account.AccountName))
	b.WriteString(tlv("60", account.City))
	b.WriteString(tlv("62", tlv("01", content)))
	b.WriteString("6304")

	payload := b.String()

	return payload + fmt.Sprintf("%04X", crc16CCITT([]byte(payload)))
}

func tlv(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}

// crc16CCITT implements CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF), the
// checksum EMVCo mandates for QR payloads.
func crc16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)

	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}

	return crc
}

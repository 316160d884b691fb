package session

import (
	"time"

	"github.com/pquerna/otp/totp"
)

// currentTOTPCode computes the current TOTP code for a base32 secret,
// used when a service account has a machine-resolvable second factor and
// therefore never needs to pause for a human.
func currentTOTPCode(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now().UTC())
}

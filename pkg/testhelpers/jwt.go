package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestJWT creates an unsigned JWT for use when signature
// verification is disabled. sub must be the reviewer's UUID; role is
// one of the reviewer roles.
func GenerateTestJWT(sub, role, name string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":"%s","role":"%s"`, sub, role)
	if name != "" {
		payload += fmt.Sprintf(`,"name":"%s"`, name)
	}
	payload += "}"

	encodedPayload := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return fmt.Sprintf("%s.%s.", header, encodedPayload)
}

// GenerateTestJWTWithBearer returns the token with a "Bearer " prefix
// for the Authorization header.
func GenerateTestJWTWithBearer(sub, role, name string) string {
	return "Bearer " + GenerateTestJWT(sub, role, name)
}

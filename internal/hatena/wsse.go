package hatena

import (
	"crypto/sha1" // #nosec G505 -- WSSE UsernameToken mandates SHA-1
	"encoding/base64"
	"fmt"
	"time"
)

// wsseHeader builds the X-WSSE header value for one request.
// PasswordDigest = Base64(SHA1(nonce + created + apiKey)).
func wsseHeader(username, apiKey string, nonce []byte, created time.Time) string {
	ts := created.UTC().Format(time.RFC3339)

	h := sha1.New() // #nosec G401 -- WSSE UsernameToken mandates SHA-1
	h.Write(nonce)
	h.Write([]byte(ts))
	h.Write([]byte(apiKey))
	digest := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf(`UsernameToken Username="%s", PasswordDigest="%s", Nonce="%s", Created="%s"`,
		username, digest, base64.StdEncoding.EncodeToString(nonce), ts)
}

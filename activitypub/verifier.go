package activitypub

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MaxClockSkew is the freshness window for inbound requests: a Date header
// further than this from now, in either direction, is rejected.
const MaxClockSkew = 30 * time.Second

// Verifier authenticates inbound requests against the claimed sender's
// published public key. Every check is mandatory; any ambiguity rejects.
type Verifier struct {
	resolver *Resolver
	maxSkew  time.Duration
	now      func() time.Time
}

// NewVerifier creates a Verifier using the given resolver for sender lookup.
func NewVerifier(resolver *Resolver) *Verifier {
	return &Verifier{
		resolver: resolver,
		maxSkew:  MaxClockSkew,
		now:      time.Now,
	}
}

// Verify validates the request's signature, digest, and timestamp against the
// claimed sender's resolved public key, and confirms that the JSON body's
// actor field matches the authenticated actor. body must be the raw request
// body; the request's Body reader is not consumed here.
//
// On success it returns the resolved actor's canonical id. The signature
// authenticates the request, and the final body-actor comparison extends that
// to the payload, so callers may trust the parsed activity's actor field.
func (v *Verifier) Verify(r *http.Request, body []byte) (string, error) {
	params := parseSignatureHeader(r.Header.Get("Signature"))

	keyID := params["keyId"]
	if keyID == "" {
		return "", fmt.Errorf("%w: missing keyId", ErrMalformedSignature)
	}

	signedHeaders := params["headers"]
	if signedHeaders == "" {
		return "", fmt.Errorf("%w: missing headers", ErrMalformedSignature)
	}

	encodedSignature := params["signature"]
	if encodedSignature == "" {
		return "", fmt.Errorf("%w: missing signature", ErrMalformedSignature)
	}

	signature, err := base64.StdEncoding.DecodeString(encodedSignature)
	if err != nil {
		return "", fmt.Errorf("%w: signature is not valid base64", ErrMalformedSignature)
	}

	// A digest header is optional (not all senders include one), but when
	// present it is authoritative and must match the body.
	if digestHeader := r.Header.Get("Digest"); digestHeader != "" {
		hash := sha256.Sum256(body)
		expected := "SHA-256=" + base64.StdEncoding.EncodeToString(hash[:])
		if digestHeader != expected {
			return "", ErrDigestMismatch
		}
	}

	actor, err := v.resolver.Resolve(r.Context(), stripFragment(keyID))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownSigner, err)
	}
	if actor.PublicKey == nil || actor.PublicKey.PublicKeyPem == "" {
		return "", fmt.Errorf("%w: actor has no public key", ErrUnknownSigner)
	}

	publicKey, err := ParsePublicKey(actor.PublicKey.PublicKeyPem)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownSigner, err)
	}

	// Reconstruct the signing string in the order the sender declared, not a
	// fixed order: the signer's chosen order is authoritative.
	signingString, err := buildSigningString(r, signedHeaders)
	if err != nil {
		return "", err
	}

	hashed := sha256.Sum256([]byte(signingString))
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, hashed[:], signature); err != nil {
		return "", ErrInvalidSignature
	}

	// Freshness window, both directions: a Date far in the future is equally
	// suspect as one far in the past.
	date, err := http.ParseTime(r.Header.Get("Date"))
	if err != nil {
		return "", fmt.Errorf("%w: missing or unparseable date header", ErrStaleRequest)
	}
	if skew := v.now().Sub(date); skew > v.maxSkew || skew < -v.maxSkew {
		return "", ErrStaleRequest
	}

	// The signature authenticates the request, not the parsed body. Reject
	// payloads claiming to be from anyone but the authenticated actor.
	var payload struct {
		Actor string `json:"actor"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: body is not valid JSON", ErrActorMismatch)
	}
	if payload.Actor != actor.ID {
		return "", ErrActorMismatch
	}

	return actor.ID, nil
}

// parseSignatureHeader splits a signature header of the form
// `keyId="...",headers="...",signature="..."` into its key-value pairs.
// Unknown parameters (algorithm, created, expires) are carried but unused.
func parseSignatureHeader(header string) map[string]string {
	params := make(map[string]string)
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || key == "" {
			continue
		}
		params[key] = strings.Trim(value, `"`)
	}
	return params
}

// buildSigningString reconstructs the signed string from the space-separated
// token list the sender declared. The literal token "(request-target)"
// expands to the lowercased method and path; every other token names a
// request header that must be present.
func buildSigningString(r *http.Request, signedHeaders string) (string, error) {
	tokens := strings.Fields(signedHeaders)
	lines := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if token == "(request-target)" {
			lines = append(lines, fmt.Sprintf("(request-target): %s %s", strings.ToLower(r.Method), r.URL.Path))
			continue
		}

		value := r.Header.Get(token)
		if value == "" && strings.EqualFold(token, "host") {
			// The Go http server promotes the Host header onto the request.
			value = r.Host
		}
		if value == "" {
			return "", fmt.Errorf("%w: signed header %q not present in request", ErrMalformedSignature, token)
		}

		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToLower(token), value))
	}

	return strings.Join(lines, "\n"), nil
}

package util

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"os"
)

// RsaKeyPair holds a PEM-encoded RSA key pair.
type RsaKeyPair struct {
	Private string
	Public  string
}

// GeneratePemKeypair generates a 4096-bit RSA key pair. The private key is
// PKCS#1 encoded, the public key PKIX encoded so that remote servers can
// consume it from the actor document.
func GeneratePemKeypair() *RsaKeyPair {
	bitSize := 4096

	key, err := rsa.GenerateKey(rand.Reader, bitSize)
	if err != nil {
		panic(err)
	}

	keyPEM := pem.EncodeToMemory(
		&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(key),
		},
	)

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		panic(err)
	}

	pubPEM := pem.EncodeToMemory(
		&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: pubBytes,
		},
	)

	return &RsaKeyPair{Private: string(keyPEM), Public: string(pubPEM)}
}

// LoadOrCreateKeypair reads the key pair from the configured files, generating
// and persisting a fresh pair when neither file exists yet.
func LoadOrCreateKeypair(conf *AppConfig) (*RsaKeyPair, error) {
	privPath := ResolveFilePath(conf.Conf.PrivateKey)
	pubPath := ResolveFilePath(conf.Conf.PublicKey)

	priv, privErr := os.ReadFile(privPath)
	pub, pubErr := os.ReadFile(pubPath)
	if privErr == nil && pubErr == nil {
		return &RsaKeyPair{Private: string(priv), Public: string(pub)}, nil
	}

	if privErr == nil || pubErr == nil {
		return nil, fmt.Errorf("incomplete key material: private=%v public=%v", privErr, pubErr)
	}

	log.Printf("No key material at %s, generating a new RSA key pair", privPath)
	pair := GeneratePemKeypair()

	if err := os.WriteFile(privPath, []byte(pair.Private), 0600); err != nil {
		return nil, fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, []byte(pair.Public), 0644); err != nil {
		return nil, fmt.Errorf("failed to write public key: %w", err)
	}

	return pair, nil
}

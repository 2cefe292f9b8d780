package jwtutil

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

func LoadRSAPrivateKeyFromPEM(path string) (*rsa.PrivateKey, error) {
	actualPath := findKeyFile(path, "/app/secrets/SESSION_PRIVATE_KEY")

	b, err := os.ReadFile(actualPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", actualPath, err)
	}

	block, _ := pem.Decode(b)
	if block == nil || (block.Type != "RSA PRIVATE KEY" && block.Type != "PRIVATE KEY") {
		return nil, fmt.Errorf("invalid PEM private key")
	}

	if block.Type == "PRIVATE KEY" {
		// PKCS8 format
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS8 private key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA private key")
		}
		return rsaKey, nil
	}

	// PKCS1 format
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func LoadRSAPublicKeyFromPEM(path string) (*rsa.PublicKey, error) {
	actualPath := findKeyFile(path, "/app/secrets/SESSION_PUBLIC_KEY")

	b, err := os.ReadFile(actualPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key from %s: %w", actualPath, err)
	}

	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM public key")
	}

	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA public key")
		}
		return rsaKey, nil
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unexpected PEM block type: %s", block.Type)
	}
}

// findKeyFile tries the configured path first, then the container mount
// location used in deployment.
func findKeyFile(originalPath, mountPath string) string {
	for _, path := range []string{originalPath, mountPath} {
		if fileExists(path) {
			return path
		}
	}
	return originalPath
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

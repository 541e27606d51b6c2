package http

import (
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadTLSConfig builds the server TLS configuration from a PEM certificate and key pair
// or, when certFile ends in .pfx or .p12, from a password protected PKCS#12 bundle.
func LoadTLSConfig(certFile, keyFile, pfxPassword string) (*tls.Config, error) {
	var (
		cert tls.Certificate
		err  error
	)

	switch strings.ToLower(filepath.Ext(certFile)) {
	case ".pfx", ".p12":
		cert, err = loadPFX(certFile, pfxPassword)
	default:
		cert, err = tls.LoadX509KeyPair(certFile, keyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}, nil
}

func loadPFX(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return tls.Certificate{}, err
	}

	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to decode pfx: %w", err)
	}

	var certPEM, keyPEM []byte
	for _, block := range blocks {
		encoded := pem.EncodeToMemory(block)
		if block.Type == "CERTIFICATE" {
			certPEM = append(certPEM, encoded...)
		} else {
			keyPEM = append(keyPEM, encoded...)
		}
	}

	return tls.X509KeyPair(certPEM, keyPEM)
}

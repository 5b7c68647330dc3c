package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// GenerateKeyPair creates a new Ed25519 keypair, hex encoded.
func GenerateKeyPair() (publicKeyHex, privateKeyHex string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}
	return hex.EncodeToString(pub), hex.EncodeToString(priv), nil
}

// DeriveAddress derives a wallet address from a hex public key.
func DeriveAddress(publicKeyHex string) string {
	hash := sha256.Sum256([]byte(publicKeyHex))
	return "0x" + hex.EncodeToString(hash[:20])
}

// SignMessage signs a message using the private key.
func SignMessage(privateKeyHex string, message []byte) (string, error) {
	privateKey, err := hex.DecodeString(privateKeyHex)
	if err != nil || len(privateKey) != ed25519.PrivateKeySize {
		return "", errors.New("invalid private key format")
	}
	signature := ed25519.Sign(privateKey, message)
	return hex.EncodeToString(signature), nil
}

// VerifySignature verifies a signed message using the public key.
func VerifySignature(publicKeyHex, message, signatureHex string) bool {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	return ed25519.Verify(publicKey, []byte(message), signature)
}

// HashData creates a SHA256 hash of the input data.
func HashData(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

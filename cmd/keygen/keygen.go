package main

import (
	"fmt"
	"os"

	"github.com/conclave-dao/conclave/crypto"
)

func main() {
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		fmt.Println("Failed to generate key pair:", err)
		os.Exit(1)
	}
	fmt.Println("Public Key:", pub)
	fmt.Println("Private Key:", priv)
	fmt.Println("Wallet Address:", crypto.DeriveAddress(pub))
}

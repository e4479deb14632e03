// Command gensecret prints a random hex key to use as SECRET_KEY.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const SecretKeyBytesLen = 32

func main() {
	n := pflag.IntP("bytes", "n", SecretKeyBytesLen, "Key length in bytes")
	pflag.Parse()

	if *n < 16 {
		fmt.Fprintln(os.Stderr, "key shorter than 16 bytes is too weak")
		os.Exit(1)
	}

	b := make([]byte, *n)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Printf("error while generating secret key: %v", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}

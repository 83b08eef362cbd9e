package auth

import "golang.org/x/crypto/bcrypt"

// BcryptPassphrase hashes and compares journey passphrases. It satisfies
// the engine's PassphraseComparer port.
type BcryptPassphrase struct {
	Cost int
}

func (b BcryptPassphrase) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

// Hash returns the salted hash of plaintext.
func (b BcryptPassphrase) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost())
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether plaintext matches hash.
func (b BcryptPassphrase) Compare(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

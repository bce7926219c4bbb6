package passcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed    = errors.New("passcode hashing failed")
	ErrGenerationFailed = errors.New("passcode generation failed")
	ErrInvalidPasscode  = errors.New("invalid passcode")
)

const (
	Digits      = 6
	DefaultCost = bcrypt.DefaultCost
)

var upperBound = big.NewInt(900000)

// Generate returns a uniformly random code in [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, upperBound)
	if err != nil {
		return "", ErrGenerationFailed
	}
	return fmt.Sprintf("%0*d", Digits, n.Int64()+100000), nil
}

func Hash(code string) (string, error) {
	if code == "" {
		return "", ErrInvalidPasscode
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}

	return string(hashedBytes), nil
}

func Matches(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

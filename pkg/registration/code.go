package registration

import (
	"errors"
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	CodePrefix = "OMW-"
	CodeSpace  = 10000

	codeAlphabet = "0123456789"
	codeDigits   = 4
)

var (
	ErrCodeSpaceExhausted = errors.New("every discount code is already taken")

	codePattern = regexp.MustCompile(`^OMW-[0-9]{4}$`)
)

// CodeSource draws one candidate discount code.
type CodeSource func() (string, error)

// RandomCodes draws four random digits per code.
func RandomCodes() CodeSource {
	return func() (string, error) {
		id, err := gonanoid.Generate(codeAlphabet, codeDigits)
		if err != nil {
			return "", fmt.Errorf("gonanoid.Generate failed: %w", err)
		}
		return CodePrefix + id, nil
	}
}

// IsCode reports whether s has the OMW-#### shape.
func IsCode(s string) bool {
	return codePattern.MatchString(s)
}

// uniqueCode draws until the candidate is not in taken. There is no attempt cap,
// the loop only stops early when the whole code space is used up.
func uniqueCode(next CodeSource, taken map[string]struct{}) (string, error) {
	used := 0
	for code := range taken {
		if IsCode(code) {
			used++
		}
	}
	if used >= CodeSpace {
		return "", ErrCodeSpaceExhausted
	}

	for {
		code, err := next()
		if err != nil {
			return "", err
		}
		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}
}

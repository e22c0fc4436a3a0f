package utils

import gonanoid "github.com/jaevor/go-nanoid"

// otpDigits generates six-digit numeric codes.
var otpDigits = mustGenerator(gonanoid.CustomASCII("0123456789", 6))

func mustGenerator(f func() string, err error) func() string {
	if err != nil {
		panic(err)
	}
	return f
}

// NewOTP returns a random six-digit email verification code.
func NewOTP() string { return otpDigits() }

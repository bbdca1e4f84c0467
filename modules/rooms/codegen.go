package rooms

import (
	gonanoid "github.com/jaevor/go-nanoid"
)

// Generated codes exclude ambiguous characters (0/O, 1/I/L); validation still
// accepts the full A-Z 0-9 set for client-supplied codes.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GeneratedCodeLength is the length of server-generated room codes.
const GeneratedCodeLength = 6

var newCode = mustCodeGenerator()

func mustCodeGenerator() func() string {
	gen, err := gonanoid.CustomASCII(codeAlphabet, GeneratedCodeLength)
	if err != nil {
		// Static alphabet and length; cannot fail at runtime.
		panic(err)
	}
	return gen
}

// GenerateRoomCode returns a fresh room code in the accepted boundary format.
// Generation does not register the code.
func GenerateRoomCode() string {
	return newCode()
}

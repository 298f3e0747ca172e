// Package columns provides per-field serialization codecs applied at the
// store boundary. A repository descriptor registers a Codec per column in a
// schema table; values pass through Encode on the way to the store and
// Decode on the way out.
package columns

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Codec transforms a single column value between domain and store
// representations.
type Codec struct {
	Encode func(v any) (any, error)
	Decode func(v any) (any, error)
}

// Table maps column names to codecs.
type Table map[string]Codec

// Encode applies the registered codec for col, passing the value through
// unchanged when none is registered.
func (t Table) Encode(col string, v any) (any, error) {
	codec, ok := t[col]
	if !ok || codec.Encode == nil {
		return v, nil
	}
	return codec.Encode(v)
}

// Decode applies the registered decoder for col.
func (t Table) Decode(col string, v any) (any, error) {
	codec, ok := t[col]
	if !ok || codec.Decode == nil {
		return v, nil
	}
	return codec.Decode(v)
}

func passthrough(v any) (any, error) { return v, nil }

// Enum restricts a string column to a fixed set of values.
func Enum[T ~string](allowed ...T) Codec {
	return Codec{
		Encode: func(v any) (any, error) {
			s := fmt.Sprintf("%v", v)
			for _, a := range allowed {
				if s == string(a) {
					return s, nil
				}
			}
			return nil, fmt.Errorf("columns: value %q not in enum %v", s, allowed)
		},
		Decode: passthrough,
	}
}

// Bool stores truthiness as a 0/1 tinyint.
func Bool() Codec {
	return Codec{
		Encode: func(v any) (any, error) {
			switch t := v.(type) {
			case bool:
				if t {
					return int16(1), nil
				}
				return int16(0), nil
			case int:
				return clampBit(int64(t))
			case int16:
				return clampBit(int64(t))
			case int64:
				return clampBit(t)
			default:
				return nil, fmt.Errorf("columns: cannot encode %T as boolean column", v)
			}
		},
		Decode: passthrough,
	}
}

func clampBit(n int64) (any, error) {
	if n != 0 && n != 1 {
		return nil, fmt.Errorf("columns: boolean column expects 0 or 1, got %d", n)
	}
	return int16(n), nil
}

// Hash one-way hashes string values with bcrypt. Already-hashed values are
// left untouched so repeated saves do not double-hash.
func Hash(cost int) Codec {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return Codec{
		Encode: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("columns: cannot hash %T", v)
			}
			if strings.HasPrefix(s, "$2") {
				return s, nil
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(s), cost)
			if err != nil {
				return nil, err
			}
			return string(hashed), nil
		},
		Decode: passthrough,
	}
}

// VerifyHash compares a plaintext value against a bcrypt hash produced by
// the Hash codec.
func VerifyHash(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// Encrypt stores string values AES-GCM encrypted and base64 encoded. The key
// must be 16, 24 or 32 bytes.
func Encrypt(key []byte) Codec {
	return Codec{
		Encode: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("columns: cannot encrypt %T", v)
			}
			gcm, err := newGCM(key)
			if err != nil {
				return nil, err
			}
			nonce := make([]byte, gcm.NonceSize())
			if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
				return nil, err
			}
			sealed := gcm.Seal(nonce, nonce, []byte(s), nil)
			return base64.StdEncoding.EncodeToString(sealed), nil
		},
		Decode: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("columns: cannot decrypt %T", v)
			}
			raw, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, err
			}
			gcm, err := newGCM(key)
			if err != nil {
				return nil, err
			}
			if len(raw) < gcm.NonceSize() {
				return nil, fmt.Errorf("columns: ciphertext too short")
			}
			nonce, ct := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
			plain, err := gcm.Open(nil, nonce, ct, nil)
			if err != nil {
				return nil, err
			}
			return string(plain), nil
		},
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

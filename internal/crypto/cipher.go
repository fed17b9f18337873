package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// KeySize - размер ключа AES-256
	KeySize = 32
	// IVSize - размер IV для AES-CBC (равен размеру блока)
	IVSize = aes.BlockSize
)

// ErrInvalidPadding возвращается, если PKCS7 padding поврежден
var ErrInvalidPadding = errors.New("invalid PKCS7 padding")

// EncryptCBC шифрует данные AES-256-CBC с PKCS7 padding.
// IV генерируется заново при каждом вызове, поэтому одинаковые
// plaintext дают разные ciphertext.
func EncryptCBC(plaintext, key []byte) (ciphertext, iv []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	iv = make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return ciphertext, iv, nil
}

// DecryptCBC дешифрует данные, зашифрованные EncryptCBC
func DecryptCBC(ciphertext, key, iv []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of the block size")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return unpadded, nil
}

// pkcs7Pad дополняет данные до кратного blockSize; всегда добавляет хотя бы один байт
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+padLen), data...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

// pkcs7Unpad проверяет и снимает padding: все байты padding должны совпадать
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, ErrInvalidPadding
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidPadding
		}
	}

	return data[:len(data)-padLen], nil
}

package models

import "context"

type EncryptionImpl interface {
	Initialize() error
	Shutdown() error
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

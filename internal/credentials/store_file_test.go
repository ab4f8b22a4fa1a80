package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/brain-io/agent/internal/config/services/encrypt"
	"github.com/brain-io/agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"), nil)

	credential, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, credential.IsEmpty())
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "platform-brain.json")
	store := NewFileStore(path, nil)
	ctx := context.Background()

	credential := models.Credential{Identifier: "analyst@example.com", Secret: "hunter2"}
	require.NoError(t, store.Save(ctx, credential))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"analyst@example.com","password":"hunter2"}`, string(data))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, credential, loaded)
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform-brain.json")
	store := NewFileStore(path, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, models.Credential{Identifier: "analyst@example.com", Secret: "hunter2"}))
	require.NoError(t, store.Clear(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform-brain.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path, nil).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStore_Encrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform-brain.json")
	ctx := context.Background()

	enc := encrypt.NewLocalEncryption("correct horse", "battery staple")
	require.NoError(t, enc.Initialize())

	store := NewFileStore(path, enc)
	credential := models.Credential{Identifier: "analyst@example.com", Secret: "hunter2"}
	require.NoError(t, store.Save(ctx, credential))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.True(t, isEnvelope(data))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, credential, loaded)

	t.Run("without key", func(t *testing.T) {
		_, err := NewFileStore(path, nil).Load(ctx)
		assert.ErrorIs(t, err, ErrEncryptedWithoutKey)
	})

	t.Run("cleared file stays readable", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))

		loaded, err := NewFileStore(path, nil).Load(ctx)
		require.NoError(t, err)
		assert.True(t, loaded.IsEmpty())
	})
}

func TestFileStore_PlainFileWithEncryption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform-brain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"email":"analyst@example.com","password":"hunter2"}`), 0600))

	enc := encrypt.NewLocalEncryption("correct horse", "battery staple")
	require.NoError(t, enc.Initialize())

	loaded, err := NewFileStore(path, enc).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "analyst@example.com", loaded.Identifier)
}

// sealingKMS xors the plaintext so the file store can be tested against a
// KMS-backed encryption without AWS
type sealingKMS struct{}

func xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i := range in {
		out[i] = in[i] ^ 0x5a
	}
	return out
}

func (sealingKMS) Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error) {
	return &kms.EncryptOutput{CiphertextBlob: xor(params.Plaintext), KeyId: params.KeyId}, nil
}

func (sealingKMS) Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	return &kms.DecryptOutput{Plaintext: xor(params.CiphertextBlob)}, nil
}

func TestFileStore_KMSEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform-brain.json")
	ctx := context.Background()

	enc := encrypt.NewAwsEncryption(sealingKMS{}, "alias/brain")
	require.NoError(t, enc.Initialize())

	store := NewFileStore(path, enc)
	credential := models.Credential{Identifier: "analyst@example.com", Secret: "hunter2"}
	require.NoError(t, store.Save(ctx, credential))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "analyst@example.com")
	assert.True(t, isEnvelope(data))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, credential, loaded)

	_, err = NewFileStore(path, nil).Load(ctx)
	assert.ErrorIs(t, err, ErrEncryptedWithoutKey)
}

package security

import (
	"testing"
)

// TestMain sets up the encryption key for all tests and cleans up after
func TestMain(m *testing.M) {
	// Initialize with a test key
	InitializeEncryption("test-encryption-key-12345678901234")

	// Run tests
	m.Run()

	// Clean up by resetting the encryption key
	encryptionKey = nil
}

func TestEncryptionKeyDerivation(t *testing.T) {
	// Any secret length must derive a 32-byte AES key
	for _, secret := range []string{
		"short",
		"12345678901234567890123456789012",
		"this-is-a-very-long-secret-that-exceeds-32-bytes-by-quite-a-lot",
	} {
		InitializeEncryption(secret)
		if len(encryptionKey) != 32 {
			t.Errorf("Expected derived key length of 32 for secret %q, got %d", secret, len(encryptionKey))
		}
	}

	// Different secrets must derive different keys
	InitializeEncryption("secret-a")
	keyA := string(encryptionKey)
	InitializeEncryption("secret-b")
	if keyA == string(encryptionKey) {
		t.Error("Expected different secrets to derive different keys")
	}

	// Re-initialize with the test key for remaining tests
	InitializeEncryption("test-encryption-key-12345678901234")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		value string
	}{
		{"Simple text", "Hello, world!"},
		{"Empty string", ""},
		{"Payment reference", "txn_9f83ab_receipt-2024"},
		{"Special characters", "!@#$%^&*()_+{}|:<>?~"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encrypted, err := Encrypt(tc.value)
			if err != nil {
				t.Fatalf("Error encrypting '%s': %v", tc.value, err)
			}

			if encrypted == tc.value && tc.value != "" {
				t.Errorf("Encrypted value '%s' is the same as the original", encrypted)
			}

			decrypted, err := Decrypt(encrypted)
			if err != nil {
				t.Fatalf("Error decrypting '%s': %v", encrypted, err)
			}

			if decrypted != tc.value {
				t.Errorf("Expected decrypted value '%s', got '%s'", tc.value, decrypted)
			}
		})
	}
}

func TestEncryptWithUninitializedKey(t *testing.T) {
	originalKey := encryptionKey
	encryptionKey = nil
	defer func() { encryptionKey = originalKey }()

	_, err := Encrypt("test")
	if err == nil {
		t.Error("Expected error when encrypting with uninitialized key, got nil")
	}
}

func TestDecryptInvalidData(t *testing.T) {
	// Invalid base64 data
	_, err := Decrypt("not-base64")
	if err == nil {
		t.Error("Expected error when decrypting invalid base64 data, got nil")
	}

	// Valid base64 but invalid ciphertext
	_, err = Decrypt("aGVsbG8=") // "hello" in base64
	if err == nil {
		t.Error("Expected error when decrypting invalid ciphertext, got nil")
	}
}

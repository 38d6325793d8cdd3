package broker

import (
	"testing"
)

const testSecret = "this-is-a-valid-32-character-key"

func TestNewEncryptor_ShortSecret(t *testing.T) {
	_, err := NewEncryptor("short")
	if err != ErrInvalidKey {
		t.Errorf("NewEncryptor() error = %v, want %v", err, ErrInvalidKey)
	}
}

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testSecret)
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	testCases := []struct {
		name      string
		plaintext string
		secretID  string
	}{
		{"kis token blob", `{"access_token":"eyJ0eXAi","access_token_token_expired":"2024-06-15 18:10:54"}`, "kis/prod"},
		{"kiwoom token blob", `{"token":"abc","expires_dt":"20240615181054"}`, "kiwoom/prod"},
		{"unicode", "토큰🔐", "ls/prod"},
		{"empty", "", "empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ciphertext, nonce, err := enc.Encrypt(tc.plaintext, tc.secretID)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if tc.plaintext != "" && string(ciphertext) == tc.plaintext {
				t.Error("ciphertext should not equal plaintext")
			}

			decrypted, err := enc.Decrypt(ciphertext, nonce, tc.secretID)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if decrypted != tc.plaintext {
				t.Errorf("Decrypt() = %q, want %q", decrypted, tc.plaintext)
			}
		})
	}
}

func TestEncryptor_SealOpen(t *testing.T) {
	enc, _ := NewEncryptor(testSecret)

	sealed, err := enc.Seal("payload", "kis/prod")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	got, err := enc.Open(sealed, "kis/prod")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got != "payload" {
		t.Errorf("Open() = %q, want %q", got, "payload")
	}

	if _, err := enc.Open(sealed, "kis/other"); err != ErrDecryptionFailed {
		t.Errorf("Open() with wrong secret ID error = %v, want %v", err, ErrDecryptionFailed)
	}
	if _, err := enc.Open("%%%not-base64", "kis/prod"); err != ErrInvalidCiphertext {
		t.Errorf("Open() with garbage error = %v, want %v", err, ErrInvalidCiphertext)
	}
	if _, err := enc.Open("AAAA", "kis/prod"); err != ErrInvalidCiphertext {
		t.Errorf("Open() with short input error = %v, want %v", err, ErrInvalidCiphertext)
	}
}

func TestEncryptor_DecryptInvalidInputs(t *testing.T) {
	enc, _ := NewEncryptor(testSecret)

	testCases := []struct {
		name       string
		ciphertext []byte
		nonce      []byte
		wantErr    error
	}{
		{"nil ciphertext", nil, []byte("123456789012"), ErrInvalidCiphertext},
		{"nil nonce", []byte("ciphertext"), nil, ErrInvalidCiphertext},
		{"wrong nonce size", []byte("ciphertext"), []byte("short"), ErrInvalidCiphertext},
		{"corrupted ciphertext", []byte("corrupted"), make([]byte, 12), ErrDecryptionFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := enc.Decrypt(tc.ciphertext, tc.nonce, "id")
			if err != tc.wantErr {
				t.Errorf("Decrypt() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestEncryptor_DeriveKey_Deterministic(t *testing.T) {
	enc, _ := NewEncryptor(testSecret)

	key1 := enc.DeriveKey("kis/prod")
	key2 := enc.DeriveKey("kis/prod")
	if string(key1) != string(key2) {
		t.Error("DeriveKey should be deterministic for same inputs")
	}
	if len(key1) != KeySize {
		t.Errorf("DeriveKey() length = %d, want %d", len(key1), KeySize)
	}
	if string(key1) == string(enc.DeriveKey("kis/dev")) {
		t.Error("DeriveKey should differ between secret IDs")
	}
}

package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

func setTestKey(t *testing.T) {
	t.Helper()
	UnsafeResetForTests()
	raw := make([]byte, requiredKeyLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("rand: %v", err)
	}
	t.Setenv(secretBoxEnvVar, base64.StdEncoding.EncodeToString(raw))
	t.Cleanup(UnsafeResetForTests)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	setTestKey(t)

	for _, msg := range []string{"", "hola", "ya29.a0AfB_byD-un-access-token-largo"} {
		ct, err := Encrypt(msg)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", msg, err)
		}
		if !strings.Contains(ct, sep) {
			t.Fatalf("ciphertext sin separador: %q", ct)
		}
		pt, err := Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if pt != msg {
			t.Fatalf("round trip: got %q want %q", pt, msg)
		}
	}
}

func TestEncrypt_NonceIsFresh(t *testing.T) {
	setTestKey(t)

	a, err := Encrypt("mismo texto")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt("mismo texto")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("dos cifrados del mismo texto no deben coincidir")
	}
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	setTestKey(t)

	ct, err := Encrypt("token secreto")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.SplitN(ct, sep, 2)
	raw, _ := base64.StdEncoding.DecodeString(parts[1])
	raw[0] ^= 0xFF
	tampered := parts[0] + sep + base64.StdEncoding.EncodeToString(raw)

	if _, err := Decrypt(tampered); err == nil {
		t.Fatal("se esperaba error de autenticación GCM")
	}
}

func TestDecrypt_RejectsBadFormat(t *testing.T) {
	setTestKey(t)

	for _, bad := range []string{"", "solo-una-parte", "a|b|c", "!!!|" + base64.StdEncoding.EncodeToString([]byte("x"))} {
		if _, err := Decrypt(bad); err == nil {
			t.Fatalf("Decrypt(%q) debía fallar", bad)
		}
	}
}

func TestEnsureLoaded_MissingKey(t *testing.T) {
	UnsafeResetForTests()
	t.Setenv(secretBoxEnvVar, "")
	t.Cleanup(UnsafeResetForTests)

	if _, err := Encrypt("x"); err == nil {
		t.Fatal("sin clave maestra Encrypt debe fallar")
	}
}

func TestReady_LoadsKeyOnFirstCall(t *testing.T) {
	setTestKey(t)

	// Nada llamó a Encrypt/Decrypt todavía: Ready debe disparar la carga
	// por sí mismo, no reportar el estado de una carga que nunca ocurrió.
	if !Ready() {
		t.Fatal("Ready() = false con una clave válida en el entorno")
	}
}

func TestReady_FalseWithoutKey(t *testing.T) {
	UnsafeResetForTests()
	t.Setenv(secretBoxEnvVar, "")
	t.Cleanup(UnsafeResetForTests)

	if Ready() {
		t.Fatal("Ready() = true sin clave configurada")
	}
}

func TestLoad_ReportsKeyProblems(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"vacía", ""},
		{"no es base64", "%%%no-base64%%%"},
		{"largo incorrecto", base64.StdEncoding.EncodeToString([]byte("corta"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			UnsafeResetForTests()
			t.Setenv(secretBoxEnvVar, tc.key)
			t.Cleanup(UnsafeResetForTests)

			if err := Load(); err == nil {
				t.Fatalf("Load() sin error con clave %s", tc.name)
			}
		})
	}
}

func TestLoad_OKWithValidKey(t *testing.T) {
	setTestKey(t)

	if err := Load(); err != nil {
		t.Fatalf("Load(): %v", err)
	}
}

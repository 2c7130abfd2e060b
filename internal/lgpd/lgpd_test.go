package lgpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskCPF(t *testing.T) {
	assert.Equal(t, "123.***.**-09", MaskCPF("123.456.789-09"))
	assert.Equal(t, "123.***.**-09", MaskCPF("12345678909"))
	// menos de 11 dígitos volta inalterado
	assert.Equal(t, "1234567", MaskCPF("1234567"))
	assert.Equal(t, "", MaskCPF(""))
}

func TestMaskRG(t *testing.T) {
	assert.Equal(t, "12*******", MaskRG("12.345.678-9"))
	assert.Equal(t, "1234", MaskRG("1234"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "(11) *******21", MaskPhone("(11) 98765-4321"))
	assert.Equal(t, "1234567", MaskPhone("1234567"))
	assert.Equal(t, "", MaskPhone(""))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a**@exemplo.com", MaskEmail("ana@exemplo.com"))
	assert.Equal(t, "a****@exemplo.com", MaskEmail("a@exemplo.com"))
	assert.Equal(t, "sem-arroba", MaskEmail("sem-arroba"))
	assert.Equal(t, "@dominio.com", MaskEmail("@dominio.com"))
}

func TestCipherRoundTrip(t *testing.T) {
	c := NewCipher("segredo-de-teste")

	casos := []string{"", "a", "Ana Silva, CPF 123.456.789-09", "conteúdo com acentuação ✓"}
	for _, texto := range casos {
		cifrado, err := c.Encrypt(texto)
		require.NoError(t, err)
		require.NotEqual(t, texto, cifrado)

		decifrado, err := c.Decrypt(cifrado)
		require.NoError(t, err)
		assert.Equal(t, texto, decifrado)
	}
}

func TestCipherDecryptMalformado(t *testing.T) {
	c := NewCipher("segredo-de-teste")

	_, err := c.Decrypt("não é base64 %%%")
	assert.ErrorIs(t, err, ErrCipher)

	_, err = c.Decrypt("YWJj") // curto demais para conter nonce
	assert.ErrorIs(t, err, ErrCipher)

	// cifrado com outra chave
	outro := NewCipher("outro-segredo")
	cifrado, err := outro.Encrypt("dado")
	require.NoError(t, err)
	_, err = c.Decrypt(cifrado)
	assert.ErrorIs(t, err, ErrCipher)
}

func TestHashVerifyIntegrity(t *testing.T) {
	digest := Hash("documento importante")
	assert.True(t, VerifyIntegrity("documento importante", digest))
	assert.False(t, VerifyIntegrity("documento importantE", digest))
	assert.False(t, VerifyIntegrity("documento importante", digest[:len(digest)-1]+"0"))
}

func TestAnonymizeForExport(t *testing.T) {
	registro := RegistroExportavel{
		ID:          "p1",
		Nome:        "Ana Silva",
		Email:       "ana@exemplo.com",
		Telefone:    "(11) 98765-4321",
		WhatsApp:    "(11) 91234-5678",
		CPF:         "123.456.789-09",
		RG:          "12.345.678-9",
		Cidade:      "Zabelê",
		Observacoes: "anotação sigilosa",
	}

	anonimo := AnonymizeForExport(registro)
	assert.Equal(t, "Ana Silva", anonimo.Nome)
	assert.Equal(t, "Zabelê", anonimo.Cidade)
	assert.Equal(t, "123.***.**-09", anonimo.CPF)
	assert.Equal(t, "12*******", anonimo.RG)
	assert.Equal(t, "a**@exemplo.com", anonimo.Email)
	assert.Empty(t, anonimo.Observacoes)
	// original intacto
	assert.Equal(t, "anotação sigilosa", registro.Observacoes)
}

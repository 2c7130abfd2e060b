// Package lgpd reúne utilidades de proteção de dados pessoais exigidas
// pela LGPD: mascaramento parcial, cifragem simétrica em repouso e
// verificação de integridade.
package lgpd

import "strings"

// apenasDigitos remove tudo que não for dígito.
func apenasDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskCPF mantém os 3 primeiros e 2 últimos dígitos: 123.***.**-09.
// Entradas que não contêm exatamente 11 dígitos voltam inalteradas.
func MaskCPF(cpf string) string {
	digitos := apenasDigitos(cpf)
	if len(digitos) != 11 {
		return cpf
	}
	return digitos[:3] + ".***.**" + "-" + digitos[9:]
}

// MaskRG revela apenas os 2 primeiros dígitos. RGs com menos de 5
// dígitos voltam inalterados.
func MaskRG(rg string) string {
	digitos := apenasDigitos(rg)
	if len(digitos) < 5 {
		return rg
	}
	return digitos[:2] + strings.Repeat("*", len(digitos)-2)
}

// MaskPhone revela o DDD e os 2 últimos dígitos: (11) *****-**21.
// Números com menos de 8 dígitos voltam inalterados.
func MaskPhone(telefone string) string {
	digitos := apenasDigitos(telefone)
	if len(digitos) < 8 {
		return telefone
	}
	return "(" + digitos[:2] + ") " + strings.Repeat("*", len(digitos)-4) + digitos[len(digitos)-2:]
}

// MaskEmail mantém o primeiro caractere da parte local e o domínio:
// a****@dominio.com. E-mails sem "@" ou com parte local vazia voltam
// inalterados.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	local := email[:at]
	if len(local) == 1 {
		return local + "****" + email[at:]
	}
	return local[:1] + strings.Repeat("*", len(local)-1) + email[at:]
}

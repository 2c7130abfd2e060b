package util

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"
)

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// ValidatePasswordStrength aplica a política usada na troca de credenciais:
// mínimo de 8 caracteres com maiúscula, minúscula e dígito.
func ValidatePasswordStrength(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return errors.New("senha deve conter maiúscula, minúscula e número")
	}
	return nil
}

// ValidateBirthDate rejeita datas de nascimento no futuro.
func ValidateBirthDate(nascimento time.Time) error {
	if nascimento.After(time.Now()) {
		return errors.New("data de nascimento não pode estar no futuro")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}

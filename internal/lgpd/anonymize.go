package lgpd

// RegistroExportavel é a projeção de um registro pessoal usada em
// exportações. Os campos sensíveis chegam em claro e saem mascarados.
type RegistroExportavel struct {
	ID             string `json:"id"`
	Nome           string `json:"nome"`
	Email          string `json:"email,omitempty"`
	Telefone       string `json:"telefone,omitempty"`
	WhatsApp       string `json:"whatsapp,omitempty"`
	CPF            string `json:"cpf,omitempty"`
	RG             string `json:"rg,omitempty"`
	Cidade         string `json:"cidade,omitempty"`
	Estado         string `json:"estado,omitempty"`
	Relacionamento string `json:"relacionamento,omitempty"`
	CriadoEm       string `json:"criado_em,omitempty"`
	Observacoes    string `json:"-"`
}

// AnonymizeForExport devolve uma cópia com cpf/rg/telefone/whatsapp/email
// mascarados e observações removidas. Os demais campos passam intactos.
func AnonymizeForExport(r RegistroExportavel) RegistroExportavel {
	anonimo := r
	anonimo.CPF = MaskCPF(r.CPF)
	anonimo.RG = MaskRG(r.RG)
	anonimo.Telefone = MaskPhone(r.Telefone)
	anonimo.WhatsApp = MaskPhone(r.WhatsApp)
	anonimo.Email = MaskEmail(r.Email)
	anonimo.Observacoes = ""
	return anonimo
}

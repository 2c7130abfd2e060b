package storage

import "context"

// UploadInput descreve um anexo de mensagem a persistir no bucket.
type UploadInput struct {
	Key         string
	Body        []byte
	ContentType string
}

// UploadResult aponta para o anexo persistido.
type UploadResult struct {
	URL string
}

// Uploader define comportamento básico para armazenar blobs (anexos de
// mensagens: arquivos e áudios gravados).
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/db"
	"github.com/gestaogabinete/gabinete/internal/gabinete"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	auditService := audit.NewService(audit.NewPGStore(pool))
	service := gabinete.NewService(gabinete.NewPGStore(pool), auditService, nil)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		if err := runCreate(ctx, service, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar gabinete")
		}
	case "list":
		if err := runList(ctx, service); err != nil {
			log.Fatal().Err(err).Msg("falha ao listar gabinetes")
		}
	case "credenciais":
		if err := runCredenciais(ctx, service, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao definir credenciais")
		}
	case "rotate-senha":
		if err := runRotateSenha(ctx, service, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao trocar senha")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "gabinete CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  gabinete create --nome \"Gabinete Centro\" --vereador \"Carlos Lima\" --municipio Zabelê [--admin-nome Ana --admin-email ana@exemplo.gov.br]")
	fmt.Fprintln(os.Stderr, "  gabinete list")
	fmt.Fprintln(os.Stderr, "  gabinete credenciais --id <uuid> --username gabinete.centro --email centro@exemplo.gov.br --senha SenhaForte123")
	fmt.Fprintln(os.Stderr, "  gabinete rotate-senha --id <uuid> --senha NovaSenha456")
}

const cliUser = "cli"

func runCreate(ctx context.Context, service *gabinete.Service, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		nome       = fs.String("nome", "", "nome do gabinete")
		vereador   = fs.String("vereador", "", "nome do vereador")
		municipio  = fs.String("municipio", "", "município do gabinete")
		adminNome  = fs.String("admin-nome", "", "nome do administrador")
		adminEmail = fs.String("admin-email", "", "e-mail do administrador")
		status     = fs.String("status", "", "status inicial (ativo, pendente, inativo)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *nome == "" || *vereador == "" || *municipio == "" {
		return errors.New("nome, vereador e municipio são obrigatórios")
	}

	criado, err := service.Create(ctx, gabinete.CreateInput{
		Nome:       *nome,
		Vereador:   *vereador,
		Municipio:  *municipio,
		AdminNome:  *adminNome,
		AdminEmail: *adminEmail,
		Status:     *status,
	}, cliUser, audit.RequestInfo{})
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(criado, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runList(ctx context.Context, service *gabinete.Service) error {
	gabinetes, err := service.List(ctx)
	if err != nil {
		return err
	}

	if len(gabinetes) == 0 {
		fmt.Println("nenhum gabinete cadastrado")
		return nil
	}

	encoded, _ := json.MarshalIndent(gabinetes, "", "  ")
	fmt.Println(string(encoded))
	return nil
}

func runCredenciais(ctx context.Context, service *gabinete.Service, args []string) error {
	fs := flag.NewFlagSet("credenciais", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		id       = fs.String("id", "", "id do gabinete")
		username = fs.String("username", "", "usuário de acesso")
		email    = fs.String("email", "", "e-mail de acesso")
		senha    = fs.String("senha", "", "senha inicial")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == "" || *username == "" || *email == "" || *senha == "" {
		return errors.New("id, username, email e senha são obrigatórios")
	}

	c, err := service.SetCredenciais(ctx, *id, gabinete.CredenciaisInput{
		Username: *username,
		Email:    *email,
		Senha:    *senha,
	}, cliUser, audit.RequestInfo{})
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(c, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runRotateSenha(ctx context.Context, service *gabinete.Service, args []string) error {
	fs := flag.NewFlagSet("rotate-senha", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		id    = fs.String("id", "", "id do gabinete")
		senha = fs.String("senha", "", "nova senha")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == "" || *senha == "" {
		return errors.New("id e senha são obrigatórios")
	}

	if err := service.RotateSenha(ctx, *id, *senha, cliUser, audit.RequestInfo{}); err != nil {
		return err
	}

	fmt.Println("senha atualizada")
	return nil
}

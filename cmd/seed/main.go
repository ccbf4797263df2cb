// seed da de alta un tenant (empresa + admin) y opcionalmente importa un plan de cuentas
// desde un XML en ISO-8859-1 con el formato:
//
//	<plan><cuenta codigo="1105" nombre="Caja general" tipo="asset" padre="11"/></plan>
//
// Uso: go run ./cmd/seed -tenant acme -name "Acme SAS" -email admin@acme.co -password ... [-chart plan.xml]
// Lee DATABASE_URL y el resto de la configuración igual que la API.
package main

import (
	"context"
	"encoding/xml"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/cache"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Contabilidad-api/pkg/config"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

type plan struct {
	Cuentas []cuenta `xml:"cuenta"`
}

type cuenta struct {
	Codigo string `xml:"codigo,attr"`
	Nombre string `xml:"nombre,attr"`
	Tipo   string `xml:"tipo,attr"`
	Padre  string `xml:"padre,attr"`
}

func main() {
	tenant := flag.String("tenant", "", "tenant_id a crear")
	name := flag.String("name", "", "razón social")
	taxID := flag.String("tax-id", "", "NIT")
	email := flag.String("email", "", "email del administrador")
	password := flag.String("password", "", "contraseña del administrador")
	chart := flag.String("chart", "", "XML del plan de cuentas (opcional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	if cfg.DB.Driver != config.DriverPostgres {
		fmt.Fprintln(os.Stderr, "seed requiere STORAGE_DRIVER=postgres")
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB.DatabaseURL, postgres.PoolOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conectar a la base: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migraciones: %v\n", err)
		os.Exit(1)
	}
	if len(applied) > 0 {
		fmt.Printf("Migraciones aplicadas: %s\n", strings.Join(applied, ", "))
	}

	tx := postgres.NewTxRunner(pool)
	company, err := usecase.NewCompanyUseCase(tx).Provision(ctx, dto.ProvisionTenantRequest{
		TenantID:      *tenant,
		Name:          *name,
		TaxID:         *taxID,
		AdminEmail:    *email,
		AdminPassword: *password,
		SeedAccounts:  *chart == "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Alta del tenant: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Tenant %s creado (admin %s)\n", company.TenantID, company.AdminID)

	if *chart == "" {
		return
	}
	cuentas, err := readChart(*chart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Plan de cuentas: %v\n", err)
		os.Exit(1)
	}

	scope := entity.RequestScope{
		TenantID:  company.TenantID,
		Principal: entity.Principal{UserID: company.AdminID, TenantID: company.TenantID, Roles: []string{entity.RoleAdmin}},
		TraceID:   "seed",
	}
	accounts := usecase.NewAccountUseCase(tx, postgres.NewRepos(pool), audit.NewRecorder(), cache.NewMemory(), log)
	created, err := importChart(ctx, accounts, scope, cuentas)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Importar cuenta: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Importadas %d cuentas en %s\n", created, company.TenantID)
}

// readChart decodifica el XML; los archivos exportados de sistemas contables locales vienen en ISO-8859-1.
func readChart(path string) ([]cuenta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p plan
	dec := xml.NewDecoder(f)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if len(p.Cuentas) == 0 {
		return nil, errors.New("el XML no contiene cuentas")
	}
	return p.Cuentas, nil
}

// importChart crea las cuentas en el orden del archivo; el padre debe aparecer antes que sus hijas.
func importChart(ctx context.Context, uc *usecase.AccountUseCase, scope entity.RequestScope, cuentas []cuenta) (int, error) {
	ids := make(map[string]string, len(cuentas))
	created := 0
	for _, c := range cuentas {
		req := dto.CreateAccountRequest{
			Code: strings.TrimSpace(c.Codigo),
			Name: strings.TrimSpace(c.Nombre),
			Type: strings.ToLower(strings.TrimSpace(c.Tipo)),
		}
		if padre := strings.TrimSpace(c.Padre); padre != "" {
			id, ok := ids[padre]
			if !ok {
				return created, fmt.Errorf("cuenta %s: padre %s no definido antes", req.Code, padre)
			}
			req.ParentID = &id
		}
		acct, err := uc.Create(ctx, scope, req, nil)
		if err != nil {
			if domain.CodeOf(err) == domain.CodeConflict {
				fmt.Printf("Cuenta %s ya existe, se omite\n", req.Code)
				continue
			}
			return created, fmt.Errorf("cuenta %s: %w", req.Code, err)
		}
		ids[req.Code] = acct.ID
		created++
	}
	return created, nil
}

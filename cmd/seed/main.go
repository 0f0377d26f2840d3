package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"musicqr-server/internal/config"
	pg "musicqr-server/internal/infra/db/postgres"
	"musicqr-server/internal/infra/logging"
	"musicqr-server/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	count := flag.Int("count", 100, "number of codes to generate")
	out := flag.String("out", "", "optional CSV file to write the generated codes to")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	codeRepo := pg.NewCodeRepo(pool)
	logRepo := pg.NewQueryLogRepo(pool)
	adminUC := usecase.NewAdminUseCase(codeRepo, logRepo, logger)

	// Generate in chunks so a large seed does not hit the per-call cap.
	const chunk = 1000
	var created []string
	for remaining := *count; remaining > 0; {
		n := remaining
		if n > chunk {
			n = chunk
		}
		batch, err := adminUC.Generate(ctx, n)
		if err != nil {
			log.Fatalf("generate: %v", err)
		}
		created = append(created, batch...)
		remaining -= n
	}

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create %s: %v", *out, err)
		}
		defer f.Close()
		cw := csv.NewWriter(f)
		_ = cw.Write([]string{"code"})
		for _, c := range created {
			_ = cw.Write([]string{c})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
		fmt.Printf("wrote %d codes to %s\n", len(created), *out)
	} else {
		for _, c := range created {
			fmt.Println(c)
		}
	}

	fmt.Printf("seeded %d codes\n", len(created))
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/arnavshah/rota-scheduler/pkg/config"
	"github.com/arnavshah/rota-scheduler/pkg/database"
	"github.com/arnavshah/rota-scheduler/pkg/export"
	"github.com/arnavshah/rota-scheduler/pkg/presenter"
	"github.com/arnavshah/rota-scheduler/pkg/roster"
	"github.com/arnavshah/rota-scheduler/pkg/scheduler"
)

func main() {
	config.LoadDotEnv()

	storage, err := config.StorageFromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	out := flag.String("out", "", "xlsx output path (default Assignments_<date>.xlsx)")
	strategy := flag.String("strategy", "", "rest_aware or least_loaded")
	seed := flag.Int64("seed", 0, "shuffle day order with this seed (0 keeps canonical order)")
	demo := flag.Bool("demo", storage.SeedDemoRoster, "seed the demo roster when the store is empty")
	save := flag.Bool("save", true, "store the generated month as the latest schedule")
	flag.Parse()

	db, err := database.Open(storage.DatabaseURL, storage.DataPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	ctx := context.Background()
	store := roster.NewStore(db)
	if err := store.Seed(ctx, *demo); err != nil {
		log.Fatalf("seed roster: %v", err)
	}
	r, err := store.Snapshot(ctx)
	if err != nil {
		log.Fatalf("load roster: %v", err)
	}

	st, err := scheduler.ParseStrategy(*strategy)
	if err != nil {
		log.Fatal(err)
	}
	opts := []scheduler.Option{scheduler.WithStrategy(st)}
	if *seed != 0 {
		opts = append(opts, scheduler.WithDayShuffle(rand.New(rand.NewSource(*seed))))
	}

	s, err := scheduler.NewScheduler(opts...).GenerateMonth(r)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	if *save {
		if err := store.SaveSchedule(ctx, r, s); err != nil {
			log.Fatalf("save schedule: %v", err)
		}
	}

	tables := presenter.MonthTables(r, s.Grid)
	fmt.Print(presenter.Text(tables))
	log.Printf("%d workers, %d locations, cap %d, fairness %.1f%%, %d understaffed cells",
		len(r.Workers), len(r.Locations), s.CapPerWorker, s.FairnessScore, len(s.Unfilled))

	path := *out
	if path == "" {
		path = export.FileName(time.Now())
	}
	if err := writeWorkbook(path, tables); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s", path)
}

// writeWorkbook writes the xlsx to path. A failed write leaves no file behind.
func writeWorkbook(path string, tables []presenter.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	err = export.XLSX(f, tables)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			log.Printf("could not remove %s: %v", path, rerr)
		}
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

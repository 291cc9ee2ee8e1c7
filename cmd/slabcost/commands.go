package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/piwi3910/SlabCost/internal/api"
	"github.com/piwi3910/SlabCost/internal/engine"
	"github.com/piwi3910/SlabCost/internal/importer"
	"github.com/piwi3910/SlabCost/internal/logger"
	"github.com/piwi3910/SlabCost/internal/model"
	"github.com/piwi3910/SlabCost/internal/project"
	"github.com/piwi3910/SlabCost/internal/slat"
)

// env is the configuration and data shared by every command.
type env struct {
	cfg     model.AppConfig
	log     *zap.Logger
	catalog model.Catalog
	library model.Library
}

func loadEnv(configPath string) (*env, error) {
	cfg, err := project.LoadAppConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, catalog: model.DefaultCatalog(), library: model.DefaultLibrary()}
	if cfg.CatalogPath != "" {
		if e.catalog, err = project.LoadCatalog(cfg.CatalogPath); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	if cfg.LibraryPath != "" {
		if e.library, err = project.LoadLibrary(cfg.LibraryPath); err != nil {
			return nil, fmt.Errorf("failed to load library: %w", err)
		}
	}
	log.Debug("configuration loaded",
		zap.String("config", configPath),
		zap.Int("materials", len(e.catalog.Materials)),
		zap.Int("hardware", len(e.catalog.Hardware)),
		zap.Int("boxes", len(e.library.Boxes)),
		zap.Int("components", len(e.library.Components)),
	)
	return e, nil
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	config := fs.String("config", "", "config file (json, yaml or toml)")
	return fs, config
}

// readJSON decodes a request file, "-" meaning stdin, and validates it.
func readJSON(path string, stdin io.Reader, v any) error {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return model.Validate(v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs, config := newFlagSet("serve", stderr)
	addr := fs.String("addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := loadEnv(*config)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	if *addr != "" {
		e.cfg.Server.Addr = *addr
	}
	srv := api.NewServer(engine.New(e.cfg, e.log), e.catalog, e.library, e.cfg.Server, e.log)
	return srv.ListenAndServe(ctx)
}

func runCompute(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, config := newFlagSet("compute", stderr)
	reqPath := fs.String("request", "-", "quote request JSON file, - for stdin")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := loadEnv(*config)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	var req engine.QuoteRequest
	if err := readJSON(*reqPath, stdin, &req); err != nil {
		return err
	}
	q, err := engine.New(e.cfg, e.log).Quote(e.library, e.catalog, req)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, q)
	}
	return printQuote(stdout, q)
}

func runLayout(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, config := newFlagSet("layout", stderr)
	specPath := fs.String("spec", "-", "panel spec JSON file, - for stdin")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := loadEnv(*config)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	var req api.LayoutRequest
	if err := readJSON(*specPath, stdin, &req); err != nil {
		return err
	}
	spec, err := req.PanelSpec(e.catalog)
	if err != nil {
		return err
	}
	res := slat.Layout(spec)
	if *asJSON {
		return writeJSON(stdout, res)
	}
	return printLayout(stdout, res)
}

func runImport(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	materials := fs.String("materials", "", "CSV or Excel file of materials")
	hardware := fs.String("hardware", "", "CSV or Excel file of hardware")
	out := fs.String("out", "", "catalog JSON to write (default: print to stdout)")
	merge := fs.Bool("merge", false, "merge into the existing catalog at -out")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var result importer.ImportResult
	switch {
	case *materials != "" && *hardware != "":
		return errors.New("use either -materials or -hardware")
	case *materials != "":
		result = importer.ImportFile(*materials, importer.KindMaterials)
	case *hardware != "":
		result = importer.ImportFile(*hardware, importer.KindHardware)
	default:
		return errors.New("-materials or -hardware is required")
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(stderr, "error: %s\n", e)
	}
	if len(result.Materials) == 0 && len(result.Hardware) == 0 {
		return errors.New("nothing imported")
	}

	cat := result.Catalog()
	if *merge && *out != "" {
		existing, err := project.LoadCatalog(*out)
		if err != nil {
			return err
		}
		cat = existing.Merge(cat)
	}
	if err := model.ValidateCatalog(cat); err != nil {
		return err
	}
	if *out == "" {
		return writeJSON(stdout, cat)
	}
	if err := project.SaveCatalog(*out, cat); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	fmt.Fprintf(stderr, "imported %d materials and %d hardware entries into %s\n",
		len(result.Materials), len(result.Hardware), *out)
	return nil
}

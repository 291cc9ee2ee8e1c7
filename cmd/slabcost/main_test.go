package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/SlabCost/internal/engine"
	"github.com/piwi3910/SlabCost/internal/project"
	"github.com/piwi3910/SlabCost/internal/slat"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const quoteRequest = `{
	"box_id": "caixa-paneleiro",
	"dims": {"L": 600, "A": 2200, "P": 550},
	"materials": {"internal": "mdf-branco-15", "backing": "hdf-fundo-6", "external_component": "laca-m2"},
	"components": [{"component_id": "comp-porta", "values": {"nPortas": 2}}]
}`

func TestRunUsage(t *testing.T) {
	if code, _, stderr := runCmd(t, ""); code != 2 || !strings.Contains(stderr, "usage:") {
		t.Errorf("expected usage with code 2, got %d: %s", code, stderr)
	}
	if code, _, _ := runCmd(t, "", "bogus"); code != 2 {
		t.Errorf("expected code 2 for unknown command, got %d", code)
	}
	if code, _, _ := runCmd(t, "", "compute", "-h"); code != 0 {
		t.Errorf("expected code 0 for -h, got %d", code)
	}
}

func TestComputeText(t *testing.T) {
	path := writeFile(t, "quote.json", quoteRequest)
	code, stdout, stderr := runCmd(t, "", "compute", "-request", path)
	if code != 0 {
		t.Fatalf("compute failed (%d): %s", code, stderr)
	}
	for _, want := range []string{"PEÇAS", "Lateral", "Dobradiça", "Custo bruto: R$", "Preço: R$"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestComputeJSONFromStdin(t *testing.T) {
	code, stdout, stderr := runCmd(t, quoteRequest, "compute", "-json")
	if code != 0 {
		t.Fatalf("compute failed (%d): %s", code, stderr)
	}
	var q engine.Quote
	if err := json.Unmarshal([]byte(stdout), &q); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if !q.Price.IsPositive() {
		t.Errorf("expected a positive price, got %s", q.Price)
	}
	if len(q.Hardware) != 1 || q.Hardware[0].Quantity != 8 {
		t.Errorf("expected 8 hinges for two 2200 mm doors, got %+v", q.Hardware)
	}
}

func TestComputeErrors(t *testing.T) {
	if code, _, _ := runCmd(t, `{"box_id":"nope"}`, "compute"); code != 1 {
		t.Errorf("expected code 1 for unknown box, got %d", code)
	}
	if code, _, _ := runCmd(t, "", "compute", "-request", "/nonexistent/quote.json"); code != 1 {
		t.Errorf("expected code 1 for a missing file, got %d", code)
	}
}

func TestLayoutJSON(t *testing.T) {
	spec := `{"panel_width_mm":1000,"panel_height_mm":2000,
		"vertical":{"width_mm":40,"thickness_mm":18,"spacing_mm":20},
		"same_slats":true,"vertical_material_id":"mdf-branco-18"}`
	code, stdout, stderr := runCmd(t, spec, "layout", "-json")
	if code != 0 {
		t.Fatalf("layout failed (%d): %s", code, stderr)
	}
	var res slat.Result
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if res.Vertical.Count != 17 {
		t.Errorf("expected 17 vertical slats, got %d", res.Vertical.Count)
	}
	if res.Horizontal == nil || res.Horizontal.Count != 33 {
		t.Errorf("expected 33 horizontal slats, got %+v", res.Horizontal)
	}
}

func TestLayoutText(t *testing.T) {
	spec := `{"panel_width_mm":1000,"panel_height_mm":2000,"vertical":{"width_mm":40,"spacing_mm":20},"has_backing":true}`
	code, stdout, _ := runCmd(t, spec, "layout")
	if code != 0 {
		t.Fatalf("layout failed with code %d", code)
	}
	if !strings.Contains(stdout, "Cobertura:") || !strings.Contains(stdout, "Avisos:") {
		t.Errorf("expected coverage and the missing backing warning, got:\n%s", stdout)
	}
}

func TestImport(t *testing.T) {
	csv := writeFile(t, "materiais.csv", "Nome;Largura;Altura;Preço\nMDF Cinza;2750;1850;349,90\n")
	out := filepath.Join(t.TempDir(), "catalog.json")

	code, _, stderr := runCmd(t, "", "import", "-materials", csv, "-out", out)
	if code != 0 {
		t.Fatalf("import failed (%d): %s", code, stderr)
	}
	cat, err := project.LoadCatalog(out)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(cat.Materials) != 1 || cat.Materials[0].ID != "mdf-cinza" {
		t.Errorf("unexpected catalog %+v", cat.Materials)
	}

	hw := writeFile(t, "ferragens.csv", "Nome,Preço\nPistão a gás,19.90\n")
	code, _, stderr = runCmd(t, "", "import", "-hardware", hw, "-out", out, "-merge")
	if code != 0 {
		t.Fatalf("merge import failed (%d): %s", code, stderr)
	}
	cat, err = project.LoadCatalog(out)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(cat.Materials) != 1 || len(cat.Hardware) != 1 {
		t.Errorf("expected merged catalog, got %d materials and %d hardware", len(cat.Materials), len(cat.Hardware))
	}
}

func TestImportRequiresInput(t *testing.T) {
	if code, _, _ := runCmd(t, "", "import"); code != 1 {
		t.Errorf("expected code 1 without input, got %d", code)
	}
}

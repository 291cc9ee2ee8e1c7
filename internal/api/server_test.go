package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/piwi3910/SlabCost/internal/engine"
	"github.com/piwi3910/SlabCost/internal/model"
	"github.com/piwi3910/SlabCost/internal/slat"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := model.DefaultAppConfig()
	log := zaptest.NewLogger(t)
	srv := NewServer(engine.New(cfg, log), model.DefaultCatalog(), model.DefaultLibrary(), cfg.Server, log)
	return srv.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodGet, "/catalogo", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cat model.Catalog
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cat))
	assert.Len(t, cat.Materials, len(model.DefaultCatalog().Materials))

	rr = do(t, h, http.MethodGet, "/catalogo/puxador-160", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"Puxador 160mm"`)

	rr = do(t, h, http.MethodGet, "/catalogo/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLibraryEndpoints(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodGet, "/biblioteca", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var lib model.Library
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lib))
	assert.NotNil(t, lib.FindBox("caixa-paneleiro"))

	rr = do(t, h, http.MethodGet, "/biblioteca/comp-porta", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"Porta de giro"`)

	rr = do(t, h, http.MethodGet, "/biblioteca/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

const quoteBody = `{
	"box_id": "caixa-paneleiro",
	"dims": {"L": 600, "A": 2200, "P": 550},
	"materials": {"internal": "mdf-branco-15", "backing": "hdf-fundo-6", "external_component": "laca-m2"},
	"components": [{"component_id": "comp-gaveta", "values": {"altGaveta": 200}}]
}`

func TestCompute(t *testing.T) {
	rr := do(t, newTestServer(t), http.MethodPost, "/compute", quoteBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var q engine.Quote
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	assert.NotEmpty(t, q.Pieces)
	assert.True(t, q.Price.GreaterThan(q.RawCost))
	assert.Equal(t, 15.0, q.ThicknessMm)
	assert.Equal(t, model.KindExternalFront, q.Pieces[len(q.Pieces)-1].Kind)
}

func TestCompute_Errors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{"box_id":`, http.StatusBadRequest},
		{"unknown field", `{"box_id":"caixa-paneleiro","colour":"red"}`, http.StatusBadRequest},
		{"negative dims", `{"box_id":"caixa-paneleiro","dims":{"L":-1,"A":10,"P":10}}`, http.StatusBadRequest},
		{"nothing to quote", `{"dims":{"L":1,"A":1,"P":1}}`, http.StatusBadRequest},
		{"unknown box", `{"box_id":"nope"}`, http.StatusNotFound},
		{"unknown component", `{"components":[{"component_id":"nope"}]}`, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/compute", tc.body)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestCompute_ValidationFields(t *testing.T) {
	body := `{"box":{"name":"","pieces":[{"id":"p","quantity":1,"area_formula":"L*","material_role":"internal","edge_banding":[]}]}}`
	rr := do(t, newTestServer(t), http.MethodPost, "/compute", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	fields := make([]string, len(resp.Fields))
	for i, f := range resp.Fields {
		fields[i] = f.Field
	}
	assert.Contains(t, fields, "box.name")
	assert.Contains(t, fields, "box.pieces[0].area_formula")
}

func TestCompute_InlineComponentValidated(t *testing.T) {
	body := `{"dims":{"L":600,"A":700,"P":550},"components":[{"component":{"name":"Gaveta",
		"pieces":[{"id":"frente","quantity":0,"area_formula":"Li*","material_role":"internal","edge_banding":[]}]}}]}`
	rr := do(t, newTestServer(t), http.MethodPost, "/compute", body)
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	fields := make([]string, len(resp.Fields))
	for i, f := range resp.Fields {
		fields[i] = f.Field
	}
	assert.Contains(t, fields, "components[0].component.pieces[0].quantity")
	assert.Contains(t, fields, "components[0].component.pieces[0].area_formula")
}

func TestLayout(t *testing.T) {
	body := `{
		"panel_width_mm": 1000, "panel_height_mm": 2000,
		"vertical": {"width_mm": 40, "thickness_mm": 18, "spacing_mm": 20},
		"vertical_material_id": "mdf-branco-18"
	}`
	rr := do(t, newTestServer(t), http.MethodPost, "/layout", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res slat.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 17, res.Vertical.Count)
	assert.Equal(t, 46, res.Vertical.SlatsPerSheet)
	assert.Equal(t, 1, res.Vertical.Sheets)
	assert.Equal(t, "299", res.TotalCost.String())
	assert.Nil(t, res.Horizontal)
	assert.Empty(t, res.Issues)
}

func TestLayout_Errors(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/layout", `{"panel_width_mm":1000,"panel_height_mm":1000,"vertical_material_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodPost, "/layout", `{"panel_width_mm":-5}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "panel_width_mm")
}

func TestFormulaEvaluate(t *testing.T) {
	h := newTestServer(t)

	body := `{"formula":"larguraGaveta","dims":{"L":600,"A":2200,"P":550},"thickness_mm":18,
		"box_id":"caixa-paneleiro","component_id":"comp-gaveta","values":{"folga":10}}`
	rr := do(t, h, http.MethodPost, "/formula/evaluate", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp FormulaResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	require.NotNil(t, resp.Value)
	assert.Equal(t, 544.0, *resp.Value)
	assert.Equal(t, []string{"larguraGaveta"}, resp.Identifiers)
}

func TestFormulaEvaluate_Invalid(t *testing.T) {
	h := newTestServer(t)

	for _, f := range []string{"Li*", "Li - nope", "alert(1)"} {
		body, err := json.Marshal(FormulaRequest{Formula: f, Dims: model.BoxDims{L: 600, A: 700, P: 500}})
		require.NoError(t, err)

		rr := do(t, h, http.MethodPost, "/formula/evaluate", string(body))
		require.Equal(t, http.StatusOK, rr.Code, f)

		var resp FormulaResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Valid, f)
		assert.Nil(t, resp.Value, f)
		assert.NotEmpty(t, resp.Error, f)
		assert.NotNil(t, resp.Position, f)
	}

	rr := do(t, h, http.MethodPost, "/formula/evaluate", `{"formula":"L","component_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

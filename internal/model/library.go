package model

import "time"

// Library holds the box and component definitions available to quotes.
type Library struct {
	Boxes      []BoxDefinition       `json:"boxes" validate:"dive"`
	Components []ComponentDefinition `json:"components" validate:"dive"`
	UpdatedAt  string                `json:"updated_at,omitempty"`
}

// NewLibrary creates an empty library.
func NewLibrary() Library {
	return Library{
		Boxes:      []BoxDefinition{},
		Components: []ComponentDefinition{},
	}
}

func (l *Library) touch() {
	l.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// AddBox adds a box definition. A missing ID is filled in.
func (l *Library) AddBox(b BoxDefinition) BoxDefinition {
	if b.ID == "" {
		b.ID = NewID()
	}
	l.Boxes = append(l.Boxes, b)
	l.touch()
	return b
}

// AddComponent adds a component definition. A missing ID is filled in.
func (l *Library) AddComponent(c ComponentDefinition) ComponentDefinition {
	if c.ID == "" {
		c.ID = NewID()
	}
	l.Components = append(l.Components, c)
	l.touch()
	return c
}

// Remove removes a box or component by ID. Returns true if found and removed.
func (l *Library) Remove(id string) bool {
	for i, b := range l.Boxes {
		if b.ID == id {
			l.Boxes = append(l.Boxes[:i], l.Boxes[i+1:]...)
			l.touch()
			return true
		}
	}
	for i, c := range l.Components {
		if c.ID == id {
			l.Components = append(l.Components[:i], l.Components[i+1:]...)
			l.touch()
			return true
		}
	}
	return false
}

// FindBox returns a pointer to the box with the given ID, or nil.
func (l *Library) FindBox(id string) *BoxDefinition {
	for i := range l.Boxes {
		if l.Boxes[i].ID == id {
			return &l.Boxes[i]
		}
	}
	return nil
}

// FindComponent returns a pointer to the component with the given ID, or nil.
func (l *Library) FindComponent(id string) *ComponentDefinition {
	for i := range l.Components {
		if l.Components[i].ID == id {
			return &l.Components[i]
		}
	}
	return nil
}

// FindBoxByName returns a pointer to the first box with the given name, or nil.
func (l *Library) FindBoxByName(name string) *BoxDefinition {
	for i := range l.Boxes {
		if l.Boxes[i].Name == name {
			return &l.Boxes[i]
		}
	}
	return nil
}

// FindComponentByName returns a pointer to the first component with the given name, or nil.
func (l *Library) FindComponentByName(name string) *ComponentDefinition {
	for i := range l.Components {
		if l.Components[i].Name == name {
			return &l.Components[i]
		}
	}
	return nil
}

// BoxNames returns box names for dropdowns.
func (l *Library) BoxNames() []string {
	names := make([]string, len(l.Boxes))
	for i, b := range l.Boxes {
		names[i] = b.Name
	}
	return names
}

// ComponentNames returns component names for dropdowns.
func (l *Library) ComponentNames() []string {
	names := make([]string, len(l.Components))
	for i, c := range l.Components {
		names[i] = c.Name
	}
	return names
}

// Categories returns the distinct box and component categories in first-seen order.
func (l *Library) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, b := range l.Boxes {
		add(b.Category)
	}
	for _, c := range l.Components {
		add(c.Category)
	}
	return out
}

// DefaultLibrary returns a small starter library: a tall pantry box, a
// drawer and a door.
func DefaultLibrary() Library {
	lib := NewLibrary()
	lib.Boxes = append(lib.Boxes, BoxDefinition{
		ID:                    "caixa-paneleiro",
		Name:                  "Paneleiro",
		Category:              "Cozinha",
		DifficultyCoefficient: DefaultDifficultyCoefficient,
		Pieces: []PieceSpec{
			{ID: "lateral", Name: "Lateral", Quantity: 2, AreaFormula: "A*P", Role: RoleInternal,
				EdgeBanding: NewEdgeSides(EdgeFront)},
			{ID: "base", Name: "Base/Topo", Quantity: 2, AreaFormula: "Li*P", Role: RoleInternal,
				EdgeBanding: NewEdgeSides(EdgeFront)},
			{ID: "prateleira", Name: "Prateleira", Quantity: 3, AreaFormula: "Li*(P-20)", Role: RoleInternal,
				EdgeBanding: NewEdgeSides(EdgeFront)},
			{ID: "fundo", Name: "Fundo", Quantity: 1, AreaFormula: "Li*Ai", Role: RoleBacking},
		},
		EndPanels: []EndPanelSpec{
			{PieceSpec: PieceSpec{ID: "tamp-esq", Name: "Tamponamento esquerdo", Quantity: 1, AreaFormula: "A*P",
				Role: RoleExternal, EdgeBanding: NewEdgeSides(EdgeAll)}, Face: FaceLeftSide},
			{PieceSpec: PieceSpec{ID: "tamp-dir", Name: "Tamponamento direito", Quantity: 1, AreaFormula: "A*P",
				Role: RoleExternal, EdgeBanding: NewEdgeSides(EdgeAll)}, Face: FaceRightSide},
		},
	})
	lib.Components = append(lib.Components,
		ComponentDefinition{
			ID:                    "comp-gaveta",
			Name:                  "Gaveta",
			Category:              "Gavetas",
			DifficultyCoefficient: 0.3,
			OwnVariables: []VarDecl{
				{ID: "altGaveta", Label: "Altura da gaveta", Default: 180, Min: 80, Max: 400, Unit: "mm"},
				{ID: "folga", Label: "Folga lateral", Default: 13, Min: 0, Max: 30, Unit: "mm"},
			},
			DerivedVariables: []DerivedVar{
				{ID: "larguraGaveta", Formula: "Li - 2*folga"},
				{ID: "profGaveta", Formula: "Pi - 50"},
			},
			Pieces: []PieceSpec{
				{ID: "lat-gaveta", Name: "Lateral gaveta", Quantity: 2, AreaFormula: "profGaveta*altGaveta",
					Role: RoleInternal, EdgeBanding: NewEdgeSides(EdgeTop)},
				{ID: "front-int", Name: "Contra-frente", Quantity: 2, AreaFormula: "(larguraGaveta-36)*altGaveta",
					Role: RoleInternal, EdgeBanding: NewEdgeSides(EdgeTop)},
				{ID: "fundo-gaveta", Name: "Fundo gaveta", Quantity: 1, AreaFormula: "larguraGaveta*profGaveta",
					Role: RoleBacking},
			},
			ExternalFront: &FrontSpec{PieceSpec{ID: "frente", Name: "Frente gaveta", Quantity: 1,
				AreaFormula: "(L-4)*(altGaveta+20)", Role: RoleExternalComponent, EdgeBanding: NewEdgeSides(EdgeAll)}},
			HardwareOptions: []HardwareSpec{
				{ID: "corredica", Name: "Corrediça", HardwareCatalogID: "corredica-450", DefaultEnabled: true, QuantityFormula: "1"},
				{ID: "puxador", Name: "Puxador", HardwareCatalogID: "puxador-160", DefaultEnabled: false, QuantityFormula: "L > 800 ? 2 : 1"},
			},
		},
		ComponentDefinition{
			ID:                    "comp-porta",
			Name:                  "Porta de giro",
			Category:              "Portas",
			DifficultyCoefficient: DefaultDifficultyCoefficient,
			OwnVariables: []VarDecl{
				{ID: "nPortas", Label: "Quantidade de portas", Default: 1, Min: 1, Max: 4, Unit: "un"},
			},
			DerivedVariables: []DerivedVar{
				{ID: "largPorta", Formula: "(L - 4) / nPortas"},
			},
			ExternalFront: &FrontSpec{PieceSpec{ID: "porta", Name: "Porta", Quantity: 1,
				AreaFormula: "(largPorta*nPortas)*(A-4)", Role: RoleExternalComponent, EdgeBanding: NewEdgeSides(EdgeAll)}},
			HardwareOptions: []HardwareSpec{
				{ID: "dobradica", Name: "Dobradiça", HardwareCatalogID: "dobradica-35", DefaultEnabled: true,
					QuantityFormula: "nPortas * (A > 1600 ? 4 : A > 900 ? 3 : 2)"},
			},
		},
	)
	return lib
}

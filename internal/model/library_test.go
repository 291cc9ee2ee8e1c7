package model

import "testing"

func TestLibraryAddFindRemove(t *testing.T) {
	lib := NewLibrary()
	b := lib.AddBox(BoxDefinition{Name: "Balcão", Category: "Cozinha"})
	if b.ID == "" {
		t.Fatal("expected generated id")
	}
	c := lib.AddComponent(ComponentDefinition{ID: "gav", Name: "Gaveta", Category: "Gavetas"})

	if lib.FindBox(b.ID) == nil {
		t.Error("expected box by id")
	}
	if lib.FindComponent("gav") == nil {
		t.Error("expected component by id")
	}
	if got := lib.FindBoxByName("Balcão"); got == nil || got.ID != b.ID {
		t.Error("expected box by name")
	}
	if lib.FindComponentByName("Porta") != nil {
		t.Error("expected nil for unknown component")
	}
	if lib.UpdatedAt == "" {
		t.Error("expected updated timestamp")
	}

	if !lib.Remove(c.ID) {
		t.Error("expected component removal")
	}
	if lib.Remove("missing") {
		t.Error("expected false for unknown id")
	}
	if len(lib.Components) != 0 || len(lib.Boxes) != 1 {
		t.Errorf("unexpected library contents: %d boxes, %d components", len(lib.Boxes), len(lib.Components))
	}
}

func TestLibraryNamesAndCategories(t *testing.T) {
	lib := DefaultLibrary()
	if len(lib.BoxNames()) != 1 || lib.BoxNames()[0] != "Paneleiro" {
		t.Errorf("unexpected box names %v", lib.BoxNames())
	}
	if len(lib.ComponentNames()) != 2 {
		t.Errorf("unexpected component names %v", lib.ComponentNames())
	}
	cats := lib.Categories()
	if len(cats) != 3 || cats[0] != "Cozinha" {
		t.Errorf("unexpected categories %v", cats)
	}
}

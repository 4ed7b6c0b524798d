package tool

import "testing"

func modelsFixture() Models {
	user := NewFields()
	user.Set("id", TypeInt)
	user.Set("address", "Address")
	user.Set("tags", List(TypeString))

	address := NewFields()
	address.Set("city", TypeString)
	address.Set("geo", "Optional[Geo]")

	geo := NewFields()
	geo.Set("lat", TypeFloat)
	geo.Set("lng", TypeFloat)

	orphan := NewFields()
	orphan.Set("unused", TypeString)

	return Models{
		"User":    user,
		"Address": address,
		"Geo":     geo,
		"Orphan":  orphan,
	}
}

func TestFilterModelsReachability(t *testing.T) {
	models := modelsFixture()
	tools := []Tool{{Name: "get_user", ResponseModel: "User"}}

	filtered := FilterModels(tools, models)

	for _, want := range []string{"User", "Address", "Geo"} {
		if _, ok := filtered[want]; !ok {
			t.Errorf("expected %s in filtered set", want)
		}
	}
	if _, ok := filtered["Orphan"]; ok {
		t.Error("Orphan should not be reachable")
	}
	if len(models) != 4 {
		t.Error("input models mutated")
	}
}

func TestFilterModelsListAndOptionalWrappers(t *testing.T) {
	inner := NewFields()
	inner.Set("v", TypeInt)
	outer := NewFields()
	outer.Set("items", "Optional[list[Inner]]")

	models := Models{"Inner": inner, "Outer": outer}
	tools := []Tool{{Name: "list_things", BodyModel: "Outer"}}

	filtered := FilterModels(tools, models)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 models, got %d", len(filtered))
	}
}

func TestFilterModelsCycle(t *testing.T) {
	a := NewFields()
	a.Set("b", "B")
	b := NewFields()
	b.Set("a", "A")

	models := Models{"A": a, "B": b}
	tools := []Tool{{Name: "t", BodyModel: "A"}}

	filtered := FilterModels(tools, models)
	if len(filtered) != 2 {
		t.Fatalf("cycle not handled, got %d models", len(filtered))
	}
}

func TestFilterModelsDanglingReference(t *testing.T) {
	tools := []Tool{{Name: "t", BodyModel: "Ghost"}}
	filtered := FilterModels(tools, Models{"Real": NewFields()})
	if len(filtered) != 0 {
		t.Errorf("dangling reference should yield empty set, got %v", filtered)
	}
}

func TestFilterModelsNoTools(t *testing.T) {
	filtered := FilterModels(nil, modelsFixture())
	if len(filtered) != 0 {
		t.Errorf("expected empty set, got %d models", len(filtered))
	}
}

package catalog

import (
	"encoding/json"
	"testing"
)

func TestProductPatch_CategoryID(t *testing.T) {
	t.Run("absent field leaves the category untouched", func(t *testing.T) {
		var patch ProductPatch
		if err := json.Unmarshal([]byte(`{"name":"Widget"}`), &patch); err != nil {
			t.Fatalf("failed to unmarshal patch: %v", err)
		}
		if patch.CategoryID.Set {
			t.Fatal("expected category_id to be unset")
		}
	})

	t.Run("explicit null clears the category", func(t *testing.T) {
		var patch ProductPatch
		if err := json.Unmarshal([]byte(`{"category_id":null}`), &patch); err != nil {
			t.Fatalf("failed to unmarshal patch: %v", err)
		}
		if !patch.CategoryID.Set {
			t.Fatal("expected category_id to be set")
		}
		if patch.CategoryID.Value != nil {
			t.Fatalf("expected nil value, got %q", *patch.CategoryID.Value)
		}
	})

	t.Run("value replaces the category", func(t *testing.T) {
		var patch ProductPatch
		if err := json.Unmarshal([]byte(`{"category_id":"e3b6a6b3-8c5c-4c37-9d4e-2f1a7b9d0c11"}`), &patch); err != nil {
			t.Fatalf("failed to unmarshal patch: %v", err)
		}
		if !patch.CategoryID.Set || patch.CategoryID.Value == nil {
			t.Fatalf("expected a set value, got %+v", patch.CategoryID)
		}
		if *patch.CategoryID.Value != "e3b6a6b3-8c5c-4c37-9d4e-2f1a7b9d0c11" {
			t.Fatalf("unexpected value %q", *patch.CategoryID.Value)
		}
	})
}

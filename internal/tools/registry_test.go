package tools

import (
	"errors"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Catalog())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r
}

func TestNewRegistry_RejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry([]ToolDescriptor{
		{Name: "dup"},
		{Name: "dup"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate tool names, got nil")
	}
}

func TestNewRegistry_RejectsRequiredWithDefault(t *testing.T) {
	_, err := NewRegistry([]ToolDescriptor{
		{
			Name: "bad",
			Params: []ParameterSpec{
				{Name: "p", Kind: KindString, Required: true, Default: "x"},
			},
		},
	})
	if err == nil {
		t.Fatal("expected error for required parameter with default, got nil")
	}
}

func TestNewRegistry_RejectsEnumDefaultOutsideValues(t *testing.T) {
	_, err := NewRegistry([]ToolDescriptor{
		{
			Name: "bad",
			Params: []ParameterSpec{
				{Name: "p", Kind: KindEnum, Enum: []string{"a", "b"}, Default: "c"},
			},
		},
	})
	if err == nil {
		t.Fatal("expected error for enum default outside values, got nil")
	}
}

func TestRegistry_ListIsStable(t *testing.T) {
	r := newTestRegistry(t)

	first := r.List()
	second := r.List()
	if len(first) != 5 {
		t.Fatalf("expected 5 descriptors, got %d", len(first))
	}
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Errorf("List() order changed between calls at index %d: %s vs %s", i, first[i].Name, second[i].Name)
		}
	}
}

func TestRegistry_ResolveUnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Resolve("no_such_tool")
	var unknownErr *UnknownToolError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownToolError, got %v", err)
	}
	if unknownErr.Name != "no_such_tool" {
		t.Errorf("expected error to carry the tool name, got %q", unknownErr.Name)
	}
}

func TestValidate_MissingRequiredArgument(t *testing.T) {
	r := newTestRegistry(t)
	desc, _ := r.Resolve(ToolGenerateImage)

	_, err := Validate(desc, map[string]interface{}{"model": "gemini"})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if valErr.Param != "prompt" {
		t.Errorf("expected the error to name parameter %q, got %q", "prompt", valErr.Param)
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	r := newTestRegistry(t)
	desc, _ := r.Resolve(ToolGenerateImage)

	args, err := Validate(desc, map[string]interface{}{"prompt": "a red fox"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if args["model"] != "gemini" {
		t.Errorf("expected default model %q, got %v", "gemini", args["model"])
	}
	if args["prompt"] != "a red fox" {
		t.Errorf("expected prompt to pass through, got %v", args["prompt"])
	}
}

func TestValidate_RejectsEnumOutsideValues(t *testing.T) {
	r := newTestRegistry(t)
	desc, _ := r.Resolve(ToolGenerateImage)

	_, err := Validate(desc, map[string]interface{}{
		"prompt": "a red fox",
		"model":  "dall-e",
	})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError for enum violation, got %v", err)
	}
}

func TestValidate_NormalizesIntegerNumbers(t *testing.T) {
	r := newTestRegistry(t)
	desc, _ := r.Resolve(ToolListMedia)

	args, err := Validate(desc, map[string]interface{}{"limit": 10})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if v, ok := args["limit"].(float64); !ok || v != 10 {
		t.Errorf("expected limit to be normalized to float64(10), got %T %v", args["limit"], args["limit"])
	}
	if args["type"] != "all" {
		t.Errorf("expected default type %q, got %v", "all", args["type"])
	}
}

func TestValidate_RejectsWrongTypes(t *testing.T) {
	r := newTestRegistry(t)
	desc, _ := r.Resolve(ToolListMedia)

	_, err := Validate(desc, map[string]interface{}{"limit": "ten"})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError for non-numeric limit, got %v", err)
	}
}

func TestMCPTool_ExposesSchema(t *testing.T) {
	r := newTestRegistry(t)
	desc, _ := r.Resolve(ToolGenerateImage)

	tool := desc.MCPTool()
	if tool.Name != ToolGenerateImage {
		t.Errorf("expected tool name %q, got %q", ToolGenerateImage, tool.Name)
	}
	if tool.Description == "" {
		t.Error("expected tool description to be set")
	}
	if _, ok := tool.InputSchema.Properties["prompt"]; !ok {
		t.Error("expected input schema to contain the prompt property")
	}
	found := false
	for _, req := range tool.InputSchema.Required {
		if req == "prompt" {
			found = true
		}
	}
	if !found {
		t.Error("expected prompt to be marked required in the input schema")
	}
}

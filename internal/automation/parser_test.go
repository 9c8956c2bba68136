package automation

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const typesYAML = `
triggers:
  - uid: test.Trigger
    label: Test trigger
    outputs:
      - {name: value, type: Number}
actions:
  - uid: test.Send
    config_parameters:
      - {name: target, type: text, required: true}
    inputs:
      - {name: value, type: Number, required: true}
    outputs:
      - {name: value, type: Number}
  - uid: test.Pair
    config_parameters:
      - {name: target, type: text, required: true}
    inputs:
      - {name: value, type: Number, reference: first.value}
    children:
      - id: first
        type: test.Send
        configuration: {target: "${target}"}
      - id: second
        type: test.Send
        configuration: {target: fixed}
        connections: {value: first.value}
`

func TestYAMLParser_ParseModuleTypes(t *testing.T) {
	types, err := YAMLParser{}.ParseModuleTypes(strings.NewReader(typesYAML))
	if err != nil {
		t.Fatalf("ParseModuleTypes() error = %v", err)
	}
	if len(types) != 3 {
		t.Fatalf("got %d types, want 3", len(types))
	}

	trig, pair := types[0], types[2]
	if trig.Kind() != KindTrigger || trig.Label() != "Test trigger" {
		t.Errorf("trigger = {%s %q}", trig.Kind(), trig.Label())
	}
	if !pair.IsComposite() || pair.Kind() != KindAction {
		t.Fatalf("pair = {composite %v, kind %s}", pair.IsComposite(), pair.Kind())
	}
	children := pair.Children()
	if children[1].Connections["value"] != "first.value" || children[0].Configuration["target"] != "${target}" {
		t.Errorf("children = %+v", children)
	}

	// The parsed types build through the factory.
	lookup := typeMap{}
	for _, d := range types {
		lookup[d.UID()] = d
	}
	if _, err := NewFactory(lookup).CreateComposite("p", pair, map[string]any{"target": "hall"}, nil); err != nil {
		t.Errorf("CreateComposite() error = %v", err)
	}
}

func TestYAMLParser_ModuleTypesRoundTrip(t *testing.T) {
	p := YAMLParser{}
	parsed, err := p.ParseModuleTypes(strings.NewReader(typesYAML))
	if err != nil {
		t.Fatalf("ParseModuleTypes() error = %v", err)
	}
	original := append(CoreModuleTypes(), parsed...)

	var buf bytes.Buffer
	if err := p.WriteModuleTypes(&buf, original); err != nil {
		t.Fatalf("WriteModuleTypes() error = %v", err)
	}
	again, err := p.ParseModuleTypes(&buf)
	if err != nil {
		t.Fatalf("re-parsing written types: %v", err)
	}

	byUID := make(map[string]*Descriptor, len(again))
	for _, d := range again {
		byUID[d.UID()] = d
	}
	if len(byUID) != len(original) {
		t.Fatalf("got %d types, want %d", len(byUID), len(original))
	}
	for _, want := range original {
		got, ok := byUID[want.UID()]
		if !ok {
			t.Errorf("type %q lost", want.UID())
			continue
		}
		if got.Kind() != want.Kind() || got.Label() != want.Label() {
			t.Errorf("%s: kind/label = %s/%q, want %s/%q", want.UID(), got.Kind(), got.Label(), want.Kind(), want.Label())
		}
		if !reflect.DeepEqual(got.ConfigParameters(), want.ConfigParameters()) {
			t.Errorf("%s: parameters = %+v, want %+v", want.UID(), got.ConfigParameters(), want.ConfigParameters())
		}
		if !reflect.DeepEqual(got.Inputs(), want.Inputs()) || !reflect.DeepEqual(got.Outputs(), want.Outputs()) {
			t.Errorf("%s: ports differ", want.UID())
		}
		if !reflect.DeepEqual(got.Children(), want.Children()) {
			t.Errorf("%s: children = %+v, want %+v", want.UID(), got.Children(), want.Children())
		}
	}
}

func TestYAMLParser_RulesRoundTrip(t *testing.T) {
	rule, err := NewRuleDescriptor(RuleSpec{
		UID:              "hall-light",
		Name:             "Hall light",
		Tags:             []string{"lighting"},
		ConfigParameters: []ConfigParameter{{Name: "limit", Type: TypeInteger, Default: 10}},
		Triggers:         []Module{{ID: "t", TypeUID: "test.Trigger"}},
		Conditions: []Module{{
			ID: "c", TypeUID: "test.Threshold",
			Configuration: map[string]any{"limit": "${limit}"},
			Connections:   map[string]string{"value": "t.value"},
		}},
		Actions: []Module{
			{ID: "a1", TypeUID: "test.Send", Configuration: map[string]any{"target": "hall"}, Connections: map[string]string{"value": "t.value"}},
			{ID: "a2", TypeUID: "test.Send", Configuration: map[string]any{"target": "porch"}, Connections: map[string]string{"value": "a1.value"}},
		},
	})
	if err != nil {
		t.Fatalf("NewRuleDescriptor() error = %v", err)
	}

	p := YAMLParser{}
	var buf bytes.Buffer
	if err := p.WriteRules(&buf, []*RuleDescriptor{rule}); err != nil {
		t.Fatalf("WriteRules() error = %v", err)
	}
	rules, err := p.ParseRules(&buf)
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	if !reflect.DeepEqual(rules[0].Spec(), rule.Spec()) {
		t.Errorf("round trip:\n got %+v\nwant %+v", rules[0].Spec(), rule.Spec())
	}
}

func TestYAMLParser_AcceptsJSON(t *testing.T) {
	doc := `{"rules": [{"uid": "r1",
  "triggers": [{"id": "t", "type": "timer.GenericCronTrigger", "configuration": {"cronExpression": "0 0 * * * ?"}}],
  "actions": [{"id": "a", "type": "core.ItemCommandAction", "configuration": {"itemName": "Hall", "command": "ON"}}]}]}`

	rules, err := YAMLParser{}.ParseRules(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}
	if len(rules) != 1 || rules[0].UID() != "r1" || len(rules[0].Actions()) != 1 {
		t.Errorf("rules = %+v", rules)
	}
}

func TestYAMLParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		rules   bool
		wantErr error
	}{
		{name: "malformed yaml", doc: "triggers: [", wantErr: ErrParse},
		{name: "unknown field", doc: "triggers:\n  - uid: x\n    colour: red\n", wantErr: ErrParse},
		{name: "unknown section", doc: "sensors: []\n", wantErr: ErrParse},
		{
			name:    "duplicate input",
			doc:     "actions:\n  - uid: x\n    inputs: [{name: a}, {name: a}]\n",
			wantErr: ErrDuplicateKey,
		},
		{
			name:    "rule without action",
			doc:     "rules:\n  - uid: r\n    triggers: [{id: t, type: x}]\n",
			rules:   true,
			wantErr: ErrInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.rules {
				_, err = YAMLParser{}.ParseRules(strings.NewReader(tt.doc))
			} else {
				_, err = YAMLParser{}.ParseModuleTypes(strings.NewReader(tt.doc))
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestYAMLParser_EmptyDocument(t *testing.T) {
	types, err := YAMLParser{}.ParseModuleTypes(strings.NewReader(""))
	if err != nil || len(types) != 0 {
		t.Fatalf("ParseModuleTypes(\"\") = %v, %v", types, err)
	}
}

func TestFileProvider_Load(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("10-types.yaml", typesYAML)
	write("20-broken.yml", "triggers: [")
	write("30-more.json", `{"conditions": [{"uid": "test.Always"}], "triggers": [{"uid": "test.Trigger", "label": "later"}]}`)
	write("notes.txt", "not a definition")
	if err := os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o750); err != nil {
		t.Fatal(err)
	}

	p := NewTypeFileProvider(dir, YAMLParser{}, nil)
	n, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("loaded %d types, want 4", n)
	}
	trig, ok := p.Get("test.Trigger")
	if !ok || trig.Label() != "Test trigger" {
		t.Errorf("test.Trigger = %v, %v; want the first file's definition", trig, ok)
	}
	if _, ok := p.Get("test.Always"); !ok {
		t.Error("test.Always not loaded")
	}
}

func TestFileProvider_MissingDir(t *testing.T) {
	p := NewRuleFileProvider(filepath.Join(t.TempDir(), "missing"), YAMLParser{}, nil)
	if _, err := p.Load(); err == nil {
		t.Fatal("Load() of missing directory succeeded")
	}
}

func TestDescriptor_MarshalJSON(t *testing.T) {
	var d *Descriptor
	for _, core := range CoreModuleTypes() {
		if core.UID() == ItemCommandAction {
			d = core
		}
	}
	if d == nil {
		t.Fatal("core action type missing")
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["uid"] != ItemCommandAction || got["kind"] != string(KindAction) {
		t.Errorf("encoded = %s", b)
	}
	if _, ok := got["config_parameters"]; !ok {
		t.Errorf("config_parameters missing: %s", b)
	}
}

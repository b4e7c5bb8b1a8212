package render

import (
	"strings"
	"testing"

	"github.com/traitdex/traitdex/internal/types"
)

func registry() types.Registry {
	return types.Registry{
		"zeta_mod": {
			{Display: `impl Env for <a class="struct">Zeta</a>`, Types: []string{"zeta_mod::Zeta"}},
		},
		"alpha_mod": {
			{Display: "impl Env for Alpha", Types: []string{"alpha_mod::Alpha"}},
			{Display: "impl<T> Env for T", Synthetic: true, Types: []string{"alpha_mod::B", "alpha_mod::C"}},
		},
		"local_mod": {
			{Display: "impl Env for Local", Types: []string{"local_mod::Local"}},
		},
	}
}

func TestSectionExcludesLocalModule(t *testing.T) {
	out, err := New().Section("env::Env", registry(), "local_mod")
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(out, "local_mod") {
		t.Error("local module implementors must not render")
	}
	if !strings.Contains(out, "alpha_mod") || !strings.Contains(out, "zeta_mod") {
		t.Error("foreign module implementors should render")
	}
}

func TestSectionModuleOrderCollated(t *testing.T) {
	out, err := New().Section("env::Env", registry(), "")
	if err != nil {
		t.Fatal(err)
	}

	alpha := strings.Index(out, `data-module="alpha_mod"`)
	zeta := strings.Index(out, `data-module="zeta_mod"`)
	if alpha == -1 || zeta == -1 || alpha > zeta {
		t.Errorf("modules should render in collated order, got alpha=%d zeta=%d", alpha, zeta)
	}
}

func TestSectionPreservesDescriptorOrder(t *testing.T) {
	out, err := New().Section("env::Env", registry(), "local_mod")
	if err != nil {
		t.Fatal(err)
	}

	first := strings.Index(out, "impl Env for Alpha")
	second := strings.Index(out, "impl&lt;T&gt; Env for T")
	if second != -1 {
		t.Fatal("display markup must not be escaped")
	}
	second = strings.Index(out, "impl<T> Env for T")
	if first == -1 || second == -1 || first > second {
		t.Error("descriptor order within a module must be preserved")
	}
}

func TestSectionDisplayMarkupVerbatim(t *testing.T) {
	out, err := New().Section("env::Env", registry(), "")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, `<a class="struct">Zeta</a>`) {
		t.Error("descriptor display markup should be inserted verbatim")
	}
}

func TestSectionMarksSynthetic(t *testing.T) {
	out, err := New().Section("env::Env", registry(), "")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, `class="impl synthetic"`) {
		t.Error("synthetic implementors should carry the synthetic class")
	}
}

func TestSectionTypePaths(t *testing.T) {
	out, err := New().Section("env::Env", registry(), "")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, `data-types="alpha_mod::B alpha_mod::C"`) {
		t.Error("type paths should render in order")
	}
}

func TestSectionEmptyRegistry(t *testing.T) {
	out, err := New().Section("env::Env", types.Registry{}, "")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, `data-trait="env::Env"`) {
		t.Error("empty section should still carry the trait")
	}
	if strings.Contains(out, "<li") {
		t.Error("empty registry should render no items")
	}
}

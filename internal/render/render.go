// Package render turns an accumulated registry into the HTML fragment a
// documentation page embeds as its Implementors section.
package render

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/traitdex/traitdex/internal/types"
)

// Descriptor display text is generator-emitted markup and is inserted
// verbatim; everything else the template touches is escaped normally.
const sectionTemplate = `<div class="implementors" data-trait="{{.Trait}}">
<h3>Implementors</h3>
<ul class="implementors-list">
{{- range .Items}}
<li class="impl{{if .Synthetic}} synthetic{{end}}" data-module="{{.Module}}" data-types="{{.TypeList}}">{{.Display}}</li>
{{- end}}
</ul>
</div>
`

type item struct {
	Module    string
	Display   template.HTML
	Synthetic bool
	TypeList  string
}

type sectionData struct {
	Trait string
	Items []item
}

type Renderer struct {
	collator *collate.Collator
	tmpl     *template.Template
}

func New() *Renderer {
	return &Renderer{
		collator: collate.New(language.Und, collate.IgnoreCase),
		tmpl:     template.Must(template.New("implementors").Parse(sectionTemplate)),
	}
}

// Section renders the Implementors fragment for one trait. The local
// module's implementors are omitted: the page documenting the trait already
// lists its own, and foreign registries exist precisely to fill in the rest.
// Modules render in collated order; descriptor order within a module is the
// generator's and is preserved.
func (r *Renderer) Section(trait string, reg types.Registry, localModule string) (string, error) {
	modules := make([]string, 0, len(reg))
	for module := range reg {
		if module == localModule {
			continue
		}
		modules = append(modules, module)
	}
	sort.SliceStable(modules, func(i, j int) bool {
		return r.collator.CompareString(modules[i], modules[j]) < 0
	})

	data := sectionData{Trait: trait}
	for _, module := range modules {
		for _, desc := range reg[module] {
			data.Items = append(data.Items, item{
				Module:    module,
				Display:   template.HTML(desc.Display),
				Synthetic: desc.Synthetic,
				TypeList:  strings.Join(desc.Types, " "),
			})
		}
	}

	var b strings.Builder
	if err := r.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render implementors section: %w", err)
	}
	return b.String(), nil
}

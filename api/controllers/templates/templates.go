package templates

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lekhapadi/lekhapadi-backend/api/responses"
	internaltemplates "github.com/lekhapadi/lekhapadi-backend/internal/templates"
	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
)

type templateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FieldCount  int    `json:"fieldCount"`
}

// List returns the sifaris templates the form UI can offer.
func List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := internaltemplates.List()
		out := make([]templateSummary, 0, len(all))
		for _, t := range all {
			out = append(out, templateSummary{
				ID:          t.ID,
				Name:        t.Name,
				Description: t.Description,
				FieldCount:  len(t.Fields),
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// Detail returns one template with its field schema. Aliases such as
// "citizenship-sifaris" resolve to the canonical template.
func Detail(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "templateId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "templateId is required"))
			return
		}
		tmpl, ok := internaltemplates.Lookup(id)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "template not found").
				WithDetails(map[string]any{"templateId": id}))
			return
		}
		responses.WriteSuccess(w, tmpl)
	}
}

package app

import (
	"net/http"

	"github.com/cinehub/booking-engine/api"
	"github.com/cinehub/booking-engine/internal/domain"
)

func (app *application) ListCombosHandler(w http.ResponseWriter, r *http.Request) {
	combos, err := app.catalogRepo.ListCombos(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toComboListResponse(combos), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toComboListResponse(combos []domain.Combo) api.ComboListResponse {
	resp := api.ComboListResponse{Combos: make([]api.Combo, 0, len(combos))}

	for _, c := range combos {
		resp.Combos = append(resp.Combos, api.Combo{
			Id:        c.ID,
			Name:      c.Name,
			UnitPrice: c.UnitPrice,
		})
	}

	return resp
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gestaozabele/agendamento/internal/agency"
)

// OrgaoScope valida o órgão ativo das rotas de balcão. A equipe informa em
// qual órgão está atendendo via header X-Orgao (ou query orgao) e o valor
// precisa existir no diretório.
func OrgaoScope(directory *agency.Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agencyID := strings.TrimSpace(r.Header.Get("X-Orgao"))
			if agencyID == "" {
				agencyID = strings.TrimSpace(r.URL.Query().Get("orgao"))
			}
			if agencyID == "" {
				writeError(w, http.StatusBadRequest, "VALIDATION", "órgão não informado")
				return
			}

			if _, err := directory.Get(agencyID); err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION", "órgão inválido")
				return
			}

			next.ServeHTTP(w, r.WithContext(SetOrgao(r.Context(), agencyID)))
		})
	}
}
